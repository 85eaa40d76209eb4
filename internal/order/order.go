package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusPaid       Status = "paid"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// CanCancel reports whether the order can still be cancelled by the customer.
// Once payment settles the cancellation goes through support instead.
func (s Status) CanCancel() bool {
	return s == StatusPending || s == StatusProcessing
}

type Item struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"order_number"`
	CheckoutID      string          `json:"checkout_id"`
	UserID          string          `json:"user_id"`
	Status          Status          `json:"status"`
	Items           []Item          `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	ShippingFee     decimal.Decimal `json:"shipping_fee"`
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	PaymentMethod   string          `json:"payment_method"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewOrderNumber derives the customer-facing number from the order id, e.g.
// ORD-3F2A9C01. Uppercased so support staff can read it back unambiguously.
func NewOrderNumber(id uuid.UUID) string {
	return "ORD-" + strings.ToUpper(id.String()[:8])
}
