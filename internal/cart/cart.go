// Package cart holds the shopping cart aggregate, its pricing rules and the
// store that persists it through an injected Persister.
package cart

import (
	"encoding/json"

	"storefront/internal/model"
)

// Cart is an ordered set of lines keyed by product ID.
// The zero value is an empty cart ready to use.
type Cart struct {
	lines []model.CartLine
}

// New creates a cart from existing lines, dropping any that violate the
// quantity invariant.
func New(lines ...model.CartLine) *Cart {
	c := &Cart{}
	for _, l := range lines {
		if l.ProductID == "" || l.Quantity < 1 {
			continue
		}
		if i := c.index(l.ProductID); i >= 0 {
			c.lines[i].Quantity += l.Quantity
			continue
		}
		c.lines = append(c.lines, l)
	}
	return c
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []model.CartLine {
	out := make([]model.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Line returns the line for productID, if present.
func (c *Cart) Line(productID string) (model.CartLine, bool) {
	if i := c.index(productID); i >= 0 {
		return c.lines[i], true
	}
	return model.CartLine{}, false
}

// Add puts a product in the cart. Adding a product that is already present
// increases its quantity and refreshes the name and price snapshot.
func (c *Cart) Add(line model.CartLine) error {
	if line.Quantity < 1 {
		return model.ErrInvalidQuantity
	}
	if i := c.index(line.ProductID); i >= 0 {
		c.lines[i].Quantity += line.Quantity
		c.lines[i].Name = line.Name
		c.lines[i].UnitPrice = line.UnitPrice
		return nil
	}
	c.lines = append(c.lines, line)
	return nil
}

// UpdateQuantity adds delta to a line's quantity, never going below 1.
// Decrementing past 1 is a no-op, not a removal. Unknown products are ignored.
// It reports whether the cart changed.
func (c *Cart) UpdateQuantity(productID string, delta int) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	q := c.lines[i].Quantity + delta
	if q < 1 {
		q = 1
	}
	if q == c.lines[i].Quantity {
		return false
	}
	c.lines[i].Quantity = q
	return true
}

// Remove drops a product from the cart. It reports whether the cart changed.
func (c *Cart) Remove(productID string) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) index(productID string) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

type cartJSON struct {
	Lines []model.CartLine `json:"lines"`
}

// MarshalJSON encodes the cart for persistence.
func (c *Cart) MarshalJSON() ([]byte, error) {
	lines := c.lines
	if lines == nil {
		lines = []model.CartLine{}
	}
	return json.Marshal(cartJSON{Lines: lines})
}

// UnmarshalJSON decodes a persisted cart, re-applying the line invariants.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var raw cartJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = *New(raw.Lines...)
	return nil
}
