package service

import (
	"math/rand"
	"testing"

	"tracer-store/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id, price string) models.Product {
	return models.Product{
		ID:       id,
		Name:     "Product " + id,
		Price:    decimal.RequireFromString(price),
		Category: models.CategoryApparel,
	}
}

func TestCartAddSameProduct(t *testing.T) {
	c := NewCart()
	p1 := product("p1", "29.99")

	c.Add(p1)
	assert.Equal(t, 1, c.Count())
	assert.Equal(t, "29.99", c.Total().StringFixed(2))

	c.Add(p1)
	assert.Equal(t, 2, c.Count())
	assert.Equal(t, "59.98", c.Total().StringFixed(2))

	require.Equal(t, 1, c.Len())
	assert.Equal(t, 2, c.Items()[0].Quantity)
}

func TestCartAddRepeatedEqualsCallCount(t *testing.T) {
	for n := 1; n <= 20; n++ {
		c := NewCart()
		for i := 0; i < n; i++ {
			c.Add(product("p1", "1.00"))
		}
		assert.Equal(t, 1, c.Len())
		assert.Equal(t, n, c.Quantity("p1"))
	}
}

func TestCartPreservesInsertionOrder(t *testing.T) {
	c := NewCart()
	c.Add(product("p3", "1"))
	c.Add(product("p1", "1"))
	c.Add(product("p2", "1"))
	c.Add(product("p3", "1"))
	c.UpdateQuantity("p1", 4)

	var ids []string
	for _, item := range c.Items() {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"p3", "p1", "p2"}, ids)
}

func TestCartUpdateQuantityRoundTrip(t *testing.T) {
	c := NewCart()
	for i := 0; i < 5; i++ {
		c.Add(product("p1", "2.50"))
	}

	for _, delta := range []int{1, 3, -1, -4, 10} {
		c.UpdateQuantity("p1", delta)
		c.UpdateQuantity("p1", -delta)
		assert.Equal(t, 5, c.Quantity("p1"), "delta %d", delta)
	}
}

func TestCartUpdateQuantityRemoves(t *testing.T) {
	c := NewCart()
	c.Add(product("p1", "29.99"))
	c.Add(product("p2", "10.00"))
	c.Add(product("p2", "10.00"))

	removed := c.UpdateQuantity("p2", -2)
	assert.True(t, removed)
	assert.Equal(t, 1, c.Count())
	assert.Equal(t, 0, c.Quantity("p2"))

	removed = c.UpdateQuantity("p1", -1)
	assert.True(t, removed)
	assert.Equal(t, 0, c.Len())
	assert.True(t, c.Total().IsZero())
}

func TestCartUpdateQuantityFloorsAtZero(t *testing.T) {
	c := NewCart()
	c.Add(product("p1", "1"))

	removed := c.UpdateQuantity("p1", -100)
	assert.True(t, removed)
	assert.Equal(t, 0, c.Len())
}

func TestCartUpdateQuantityUnknownIsNoop(t *testing.T) {
	c := NewCart()
	c.Add(product("p1", "1"))

	assert.NotPanics(t, func() {
		assert.False(t, c.UpdateQuantity("nonexistent", 5))
	})
	assert.Equal(t, 1, c.Count())
	assert.Equal(t, 1, c.Len())
}

func TestCartRemoveKeepsIndexConsistent(t *testing.T) {
	c := NewCart()
	c.Add(product("a", "1"))
	c.Add(product("b", "2"))
	c.Add(product("c", "3"))

	c.UpdateQuantity("a", -1)
	c.UpdateQuantity("c", 1)
	c.Add(product("b", "2"))

	assert.Equal(t, 2, c.Quantity("b"))
	assert.Equal(t, 2, c.Quantity("c"))
	assert.Equal(t, "10", c.Total().String())
}

func TestCartTotalMatchesItems(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	catalog := []models.Product{
		product("p1", "29.99"), product("p2", "49.99"), product("p3", "15.00"),
		product("p4", "12.50"), product("p5", "19.99"), product("p6", "8.99"),
	}
	c := NewCart()

	for step := 0; step < 500; step++ {
		p := catalog[rng.Intn(len(catalog))]
		if rng.Intn(2) == 0 {
			c.Add(p)
		} else {
			c.UpdateQuantity(p.ID, rng.Intn(7)-3)
		}

		want := decimal.Zero
		count := 0
		seen := map[string]bool{}
		for _, item := range c.Items() {
			require.Positive(t, item.Quantity)
			require.False(t, seen[item.ID], "duplicate id %s", item.ID)
			seen[item.ID] = true
			want = want.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
			count += item.Quantity
		}
		require.True(t, want.Equal(c.Total()), "step %d", step)
		require.Equal(t, count, c.Count())
	}
}

func TestCartClear(t *testing.T) {
	c := NewCart()
	c.Add(product("p1", "1"))
	c.Clear()
	assert.Equal(t, 0, c.Count())
	assert.Empty(t, c.Items())

	c.Add(product("p1", "1"))
	assert.Equal(t, 1, c.Quantity("p1"))
}

func TestCartItemsIsSnapshot(t *testing.T) {
	c := NewCart()
	c.Add(product("p1", "1"))
	items := c.Items()
	items[0].Quantity = 99
	assert.Equal(t, 1, c.Quantity("p1"))
}
