package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/mercatto/storefront/internal/address"
	"github.com/mercatto/storefront/internal/cart"
	"github.com/mercatto/storefront/internal/coupon"
	"github.com/mercatto/storefront/internal/payment"
)

// OrderDraft accumulates what the wizard collects: the cart snapshot, then
// the shipping address, then the payment details. It carries no validation
// of its own; the controller gates what gets merged.
type OrderDraft struct {
	Items           []cart.LineItem  `json:"items"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	Address         *address.Address `json:"address,omitempty"`
	Payment         *payment.Details `json:"payment,omitempty"`
	CouponCode      string           `json:"coupon_code,omitempty"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
	ShippingFee     decimal.Decimal  `json:"shipping_fee"`
}

// DraftPatch is one step's contribution. Nil fields leave the draft's
// current value untouched.
type DraftPatch struct {
	Items       []cart.LineItem        `json:"items,omitempty"`
	Address     *address.Address       `json:"address,omitempty"`
	Payment     *payment.Details       `json:"payment,omitempty"`
	Discount    *coupon.DiscountRecord `json:"discount,omitempty"`
	ShippingFee *decimal.Decimal       `json:"shipping_fee,omitempty"`
}

// Merge is a pure shallow merge: it returns a new draft where only the
// fields present in the patch are replaced. Setting Items recomputes the
// subtotal from the new snapshot.
func Merge(draft OrderDraft, patch *DraftPatch) OrderDraft {
	if patch == nil {
		return draft
	}
	if patch.Items != nil {
		draft.Items = patch.Items
		c := cart.Cart{Items: patch.Items}
		draft.Subtotal = c.Subtotal()
	}
	if patch.Address != nil {
		draft.Address = patch.Address
	}
	if patch.Payment != nil {
		draft.Payment = patch.Payment
	}
	if patch.Discount != nil {
		draft.CouponCode = patch.Discount.Code
		draft.DiscountPercent = patch.Discount.DiscountPercent
	}
	if patch.ShippingFee != nil {
		draft.ShippingFee = *patch.ShippingFee
	}
	return draft
}

// Discount is the absolute amount taken off the subtotal, rounded to cents.
func (d OrderDraft) Discount() decimal.Decimal {
	if d.DiscountPercent.IsZero() {
		return decimal.Zero
	}
	return d.Subtotal.Mul(d.DiscountPercent).DivRound(decimal.NewFromInt(100), 2)
}

// Total = subtotal − discount + shipping. Recomputed on every call so it can
// never drift from the fields it derives from.
func (d OrderDraft) Total() decimal.Decimal {
	return d.Subtotal.Sub(d.Discount()).Add(d.ShippingFee)
}
