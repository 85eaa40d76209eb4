package coupon

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coupon is a percentage discount with optional minimum subtotal, expiry and
// usage cap.
type Coupon struct {
	Code            string          `json:"code"`
	Description     string          `json:"description"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	MinSubtotal     decimal.Decimal `json:"min_subtotal"`
	ExpiresAt       time.Time       `json:"expires_at"`
	UsageLimit      int             `json:"usage_limit"` // 0 = unlimited
	UsageCount      int             `json:"usage_count"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (c *Coupon) expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

func (c *Coupon) exhausted() bool {
	return c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit
}

// Validation is the answer to "can this code be applied to this subtotal".
// Message explains a rejection; DiscountPercent is zero unless Valid.
type Validation struct {
	Valid           bool            `json:"valid"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Message         string          `json:"message,omitempty"`
}

// DiscountRecord is the result of applying a coupon to a draft.
type DiscountRecord struct {
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}
