package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id int64, price string, qty int) LineItem {
	return LineItem{
		ProductID: id,
		Name:      "product",
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func TestAdd_MergesQuantitiesForSameProduct(t *testing.T) {
	c := &Cart{UserID: "u1"}

	c.Add(item(1, "10.00", 2))
	c.Add(item(1, "10.00", 3))
	c.Add(item(1, "10.00", 1))

	require.Len(t, c.Items, 1)
	assert.Equal(t, 6, c.Items[0].Quantity)
}

func TestAdd_CoercesQuantityToAtLeastOne(t *testing.T) {
	c := &Cart{UserID: "u1"}

	c.Add(item(1, "10.00", 0))
	c.Add(item(2, "5.00", -3))

	require.Len(t, c.Items, 2)
	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Equal(t, 1, c.Items[1].Quantity)
}

func TestAdd_PreservesInsertionOrder(t *testing.T) {
	c := &Cart{UserID: "u1"}

	c.Add(item(3, "1.00", 1))
	c.Add(item(1, "1.00", 1))
	c.Add(item(2, "1.00", 1))
	c.Add(item(1, "1.00", 1)) // merge must not reorder

	require.Len(t, c.Items, 3)
	assert.Equal(t, int64(3), c.Items[0].ProductID)
	assert.Equal(t, int64(1), c.Items[1].ProductID)
	assert.Equal(t, int64(2), c.Items[2].ProductID)
}

func TestRemove_NoOpWhenAbsent(t *testing.T) {
	c := &Cart{UserID: "u1"}
	c.Add(item(1, "10.00", 1))

	c.Remove(99)

	assert.Len(t, c.Items, 1)
}

func TestSetQuantity_IgnoresValuesBelowOne(t *testing.T) {
	c := &Cart{UserID: "u1"}
	c.Add(item(1, "10.00", 4))

	c.SetQuantity(1, 0)
	assert.Equal(t, 4, c.Items[0].Quantity)

	c.SetQuantity(1, -1)
	assert.Equal(t, 4, c.Items[0].Quantity)

	c.SetQuantity(1, 2)
	assert.Equal(t, 2, c.Items[0].Quantity)
}

func TestSubtotal(t *testing.T) {
	c := &Cart{UserID: "u1"}
	c.Add(item(1, "10.00", 2))
	c.Add(item(2, "5.00", 1))

	assert.True(t, c.Subtotal().Equal(decimal.RequireFromString("25.00")),
		"expected 25.00, got %s", c.Subtotal())
	assert.Equal(t, 3, c.ItemCount())
}

func TestSubtotal_RecomputedAfterMutation(t *testing.T) {
	c := &Cart{UserID: "u1"}
	c.Add(item(1, "9.99", 3))

	first := c.Subtotal()
	c.SetQuantity(1, 1)
	second := c.Subtotal()

	assert.True(t, first.Equal(decimal.RequireFromString("29.97")))
	assert.True(t, second.Equal(decimal.RequireFromString("9.99")))
}

func TestClear(t *testing.T) {
	c := &Cart{UserID: "u1"}
	c.Add(item(1, "10.00", 2))

	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.True(t, c.Subtotal().IsZero())
}
