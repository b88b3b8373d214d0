// Package cart implements the cart reducer and the service that keeps each
// user's cart in the store.
package cart

import (
	"errors"
	"sync"

	"ecofinds/models"

	"github.com/google/uuid"
)

var (
	ErrItemNotFound    = errors.New("cart item not found")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// Cart is an ordered set of line items keyed by a generated ID.
// It is safe for concurrent use.
type Cart struct {
	mu    sync.Mutex
	items []models.CartItem
	newID func() string
}

// New returns a cart holding a copy of items
func New(items ...models.CartItem) *Cart {
	c := &Cart{newID: func() string { return uuid.New().String() }}
	c.items = append(c.items, items...)
	return c
}

// AddItem merges quantity into the line for product, or appends a new line.
// The per-line cap is enforced by callers, not here.
func (c *Cart) AddItem(product models.Product, quantity int) (models.CartItem, error) {
	if quantity <= 0 {
		return models.CartItem{}, ErrInvalidQuantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ProductID == product.ID {
			c.items[i].Quantity += quantity
			return c.items[i], nil
		}
	}

	item := models.CartItem{
		ID:        c.newID(),
		ProductID: product.ID,
		Quantity:  quantity,
		Product:   models.SnapshotOf(product),
	}
	c.items = append(c.items, item)
	return item, nil
}

// UpdateQuantity sets the quantity of a line; zero or less removes it
func (c *Cart) UpdateQuantity(itemID string, quantity int) error {
	if quantity <= 0 {
		return c.RemoveItem(itemID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(itemID)
	if i < 0 {
		return ErrItemNotFound
	}
	c.items[i].Quantity = quantity
	return nil
}

// RemoveItem deletes a line
func (c *Cart) RemoveItem(itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(itemID)
	if i < 0 {
		return ErrItemNotFound
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return nil
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}

// Items returns a copy of the lines in insertion order
func (c *Cart) Items() []models.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len is the number of lines
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Total is the sum of unit price times quantity in minor units
func (c *Cart) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Total(c.items)
}

// Total sums unit price times quantity over items
func Total(items []models.CartItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Product.PriceCents * int64(item.Quantity)
	}
	return total
}

func (c *Cart) indexOf(itemID string) int {
	for i := range c.items {
		if c.items[i].ID == itemID {
			return i
		}
	}
	return -1
}
