package service

import (
	"tracer-store/internal/models"

	"github.com/shopspring/decimal"
)

// Cart is an ordered, id-keyed collection of cart items. It is not safe for
// concurrent use; a Session serializes access to it.
type Cart struct {
	items []models.CartItem
	index map[string]int
}

// NewCart creates an empty cart
func NewCart() *Cart {
	return &Cart{index: make(map[string]int)}
}

// Add increments the product's quantity, inserting it with quantity 1 on first add
func (c *Cart) Add(product models.Product) {
	if i, ok := c.index[product.ID]; ok {
		c.items[i].Quantity++
		return
	}
	c.index[product.ID] = len(c.items)
	c.items = append(c.items, models.CartItem{Product: product, Quantity: 1})
}

// UpdateQuantity applies delta to an item, flooring at zero. An item that reaches
// zero is removed. Unknown ids are ignored. Reports whether the item was removed.
func (c *Cart) UpdateQuantity(id string, delta int) (removed bool) {
	i, ok := c.index[id]
	if !ok {
		return false
	}
	q := max(0, c.items[i].Quantity+delta)
	if q > 0 {
		c.items[i].Quantity = q
		return false
	}
	c.remove(i)
	return true
}

func (c *Cart) remove(i int) {
	delete(c.index, c.items[i].ID)
	c.items = append(c.items[:i], c.items[i+1:]...)
	for j := i; j < len(c.items); j++ {
		c.index[c.items[j].ID] = j
	}
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.items = nil
	c.index = make(map[string]int)
}

// Quantity returns the quantity held for id, zero when absent
func (c *Cart) Quantity(id string) int {
	if i, ok := c.index[id]; ok {
		return c.items[i].Quantity
	}
	return 0
}

// Len returns the number of distinct products
func (c *Cart) Len() int {
	return len(c.items)
}

// Count returns the sum of quantities
func (c *Cart) Count() int {
	n := 0
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

// Total returns the sum of price * quantity
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Items returns a copy of the items in first-add order
func (c *Cart) Items() []models.CartItem {
	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}
