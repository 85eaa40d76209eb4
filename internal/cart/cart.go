package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one product+quantity entry in a cart. Price is captured when
// the item is added so the cart renders without a catalog round-trip.
type LineItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	ImageRef  string          `json:"image_ref,omitempty"`
	AddedAt   time.Time       `json:"added_at"`
}

// Cart is an ordered sequence of line items, unique by product ID.
type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []LineItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Add merges the item into the cart. An existing product ID gets its quantity
// incremented; otherwise the item is appended. Quantity is coerced to at
// least 1, there are no error conditions.
func (c *Cart) Add(item LineItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			return
		}
	}
	c.Items = append(c.Items, item)
}

// Remove drops the entry with the given product ID. No-op when absent.
func (c *Cart) Remove(productID int64) {
	for i, item := range c.Items {
		if item.ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// SetQuantity updates an item's quantity. Requests below 1 are ignored:
// removal must be explicit through Remove, so decrement spam cannot delete
// an item by accident.
func (c *Cart) SetQuantity(productID int64, quantity int) {
	if quantity < 1 {
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return
		}
	}
}

// Clear empties the cart. Called after a successful order submission.
func (c *Cart) Clear() {
	c.Items = nil
}

// Subtotal is Σ(unit price × quantity), recomputed on every call.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// ItemCount is the total number of units across all line items.
func (c *Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
