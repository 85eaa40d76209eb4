package payment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func validCard() Details {
	return Details{
		Method:       MethodCreditCard,
		CPF:          "123.456.789-09",
		CardNumber:   "4111 1111 1111 1111",
		CardName:     "MARIA SILVA",
		Expiry:       "12/28",
		CVV:          "123",
		Installments: 3,
	}
}

func TestValidate_CreditCardOK(t *testing.T) {
	d := validCard()
	assert.Empty(t, d.Validate(testNow))
}

func TestValidate_CardNumberDigits(t *testing.T) {
	cases := map[string]bool{
		"4111 1111 1111 1111": true,
		"4111111111111111":    true,
		"4111-1111-1111-1111": false,
		"411111111111111":     false, // 15 digits
		"41111111111111112":   false, // 17 digits
		"":                    false,
	}
	for number, ok := range cases {
		d := validCard()
		d.CardNumber = number
		errs := d.Validate(testNow)
		if ok {
			assert.NotContains(t, errs, "card_number", "number %q", number)
		} else {
			assert.Contains(t, errs, "card_number", "number %q", number)
		}
	}
}

func TestValidate_Expiry(t *testing.T) {
	d := validCard()

	d.Expiry = "13/28"
	assert.Contains(t, d.Validate(testNow), "expiry")

	d.Expiry = "00/28"
	assert.Contains(t, d.Validate(testNow), "expiry")

	d.Expiry = "1/28"
	assert.Contains(t, d.Validate(testNow), "expiry")

	d.Expiry = "12-28"
	assert.Contains(t, d.Validate(testNow), "expiry")
}

func TestValidate_ExpiredCard(t *testing.T) {
	d := validCard()

	d.Expiry = "02/26" // before testNow (March 2026)
	errs := d.Validate(testNow)
	require.Contains(t, errs, "expiry")
	assert.Equal(t, "card is expired", errs["expiry"])

	// valid through the last day of the expiry month
	d.Expiry = "03/26"
	assert.NotContains(t, d.Validate(testNow), "expiry")
}

func TestValidate_CVV(t *testing.T) {
	for _, cvv := range []string{"123", "1234"} {
		d := validCard()
		d.CVV = cvv
		assert.NotContains(t, d.Validate(testNow), "cvv")
	}
	for _, cvv := range []string{"", "12", "12345", "abc"} {
		d := validCard()
		d.CVV = cvv
		assert.Contains(t, d.Validate(testNow), "cvv")
	}
}

func TestValidate_Installments(t *testing.T) {
	d := validCard()

	d.Installments = 0
	assert.Contains(t, d.Validate(testNow), "installments")

	d.Installments = 13
	assert.Contains(t, d.Validate(testNow), "installments")

	d.Installments = 12
	assert.NotContains(t, d.Validate(testNow), "installments")
}

func TestValidate_PixNeedsOnlyCPF(t *testing.T) {
	d := Details{Method: MethodPix, CPF: "12345678909"}
	assert.Empty(t, d.Validate(testNow))

	d.CPF = "123"
	assert.Contains(t, d.Validate(testNow), "cpf")
}

func TestValidate_UnknownMethod(t *testing.T) {
	d := Details{Method: "paypal", CPF: "12345678909"}
	assert.Contains(t, d.Validate(testNow), "method")
}

func TestSetMethod_ClearsCardFields(t *testing.T) {
	d := validCard()

	d.SetMethod(MethodPix)
	assert.Empty(t, d.CardNumber)
	assert.Empty(t, d.CardName)
	assert.Empty(t, d.Expiry)
	assert.Empty(t, d.CVV)
	assert.Zero(t, d.Installments)
	assert.Equal(t, "123.456.789-09", d.CPF, "cpf applies to every variant")

	// switching back does not resurrect card data
	d.SetMethod(MethodCreditCard)
	assert.Empty(t, d.CardNumber)
}

func TestSetMethod_SameMethodKeepsFields(t *testing.T) {
	d := validCard()
	d.SetMethod(MethodCreditCard)
	assert.Equal(t, "4111 1111 1111 1111", d.CardNumber)
}

func TestInstallmentPlan(t *testing.T) {
	total := decimal.RequireFromString("300.00")
	plan := InstallmentPlan(total, 3)

	require.Len(t, plan, 3)
	assert.Equal(t, "cash price 300.00", plan[0].Label)
	assert.True(t, plan[0].Amount.Equal(total))
	assert.Equal(t, "2× of 150.00", plan[1].Label)
	assert.Equal(t, "3× of 100.00", plan[2].Label)
}

func TestInstallmentPlan_RoundsToCents(t *testing.T) {
	plan := InstallmentPlan(decimal.RequireFromString("100.00"), 3)
	assert.Equal(t, "3× of 33.33", plan[2].Label)
}

func TestInstallmentPlan_ClampsMax(t *testing.T) {
	plan := InstallmentPlan(decimal.RequireFromString("10.00"), 50)
	assert.Len(t, plan, 12)

	plan = InstallmentPlan(decimal.RequireFromString("10.00"), 0)
	assert.Len(t, plan, 1)
}
