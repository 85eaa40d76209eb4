package payment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mercatto/storefront/internal/validation"
)

type Method string

const (
	MethodCreditCard Method = "credit_card"
	MethodPix        Method = "pix"
	MethodBankSlip   Method = "bank_slip"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCreditCard, MethodPix, MethodBankSlip:
		return true
	}
	return false
}

// Details is a tagged union over the supported payment methods. Card fields
// are only meaningful when Method is credit_card; pix and bank_slip need the
// CPF only.
type Details struct {
	Method Method `json:"method"`
	CPF    string `json:"cpf"`

	CardNumber   string `json:"card_number,omitempty"`
	CardName     string `json:"card_name,omitempty"`
	Expiry       string `json:"expiry,omitempty"`
	CVV          string `json:"cvv,omitempty"`
	Installments int    `json:"installments,omitempty"`
}

// SetMethod switches the variant and clears fields that do not belong to the
// new one, so stale card data cannot ride along under a pix selection.
func (d *Details) SetMethod(m Method) {
	if d.Method == m {
		return
	}
	d.Method = m
	if m != MethodCreditCard {
		d.CardNumber = ""
		d.CardName = ""
		d.Expiry = ""
		d.CVV = ""
		d.Installments = 0
	}
}

var (
	cvvRe    = regexp.MustCompile(`^\d{3,4}$`)
	expiryRe = regexp.MustCompile(`^(\d{2})/(\d{2})$`)
	digitsRe = regexp.MustCompile(`^\d+$`)
)

// Validate applies the variant-specific rules. now anchors the expiry check:
// a card is accepted through the last day of its expiry month.
func (d *Details) Validate(now time.Time) validation.FieldErrors {
	errs := validation.FieldErrors{}

	if !d.Method.Valid() {
		errs["method"] = "payment method must be credit_card, pix or bank_slip"
		return errs
	}

	cpf := strings.NewReplacer(".", "", "-", "").Replace(d.CPF)
	if len(cpf) != 11 || !digitsRe.MatchString(cpf) {
		errs["cpf"] = "cpf must have 11 digits"
	}

	if d.Method != MethodCreditCard {
		return errs
	}

	number := strings.ReplaceAll(d.CardNumber, " ", "")
	if len(number) != 16 || !digitsRe.MatchString(number) {
		errs["card_number"] = "card number must have 16 digits"
	}
	if d.CardName == "" {
		errs["card_name"] = "card holder name is required"
	}
	if !cvvRe.MatchString(d.CVV) {
		errs["cvv"] = "cvv must have 3 or 4 digits"
	}
	if d.Installments < 1 || d.Installments > 12 {
		errs["installments"] = "installments must be between 1 and 12"
	}

	m := expiryRe.FindStringSubmatch(d.Expiry)
	if m == nil {
		errs["expiry"] = "expiry must match MM/YY"
		return errs
	}
	month, _ := strconv.Atoi(m[1])
	if month < 1 || month > 12 {
		errs["expiry"] = "expiry month must be between 01 and 12"
		return errs
	}
	year, _ := strconv.Atoi(m[2])
	endOfMonth := time.Date(2000+year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	if !now.Before(endOfMonth) {
		errs["expiry"] = "card is expired"
	}

	return errs
}

// InstallmentOption is one entry of the interest-free installment selector.
type InstallmentOption struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
	Label  string          `json:"label"`
}

// InstallmentPlan splits total into 1..max interest-free installments.
// Option 1 is the cash price; option n is labelled "n× of <amount>".
func InstallmentPlan(total decimal.Decimal, max int) []InstallmentOption {
	if max < 1 {
		max = 1
	}
	if max > 12 {
		max = 12
	}

	options := make([]InstallmentOption, 0, max)
	for n := 1; n <= max; n++ {
		amount := total.DivRound(decimal.NewFromInt(int64(n)), 2)
		label := fmt.Sprintf("%d× of %s", n, amount.StringFixed(2))
		if n == 1 {
			label = fmt.Sprintf("cash price %s", total.StringFixed(2))
			amount = total
		}
		options = append(options, InstallmentOption{Count: n, Amount: amount, Label: label})
	}
	return options
}
