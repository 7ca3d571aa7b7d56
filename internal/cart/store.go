package cart

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// UpdateFunc mutates a freshly loaded cart and reports whether it changed.
// It may run more than once when a concurrent writer wins.
type UpdateFunc func(c *Cart) (bool, error)

// Persister loads and stores carts by key. Load and Update see an empty
// cart when nothing is stored under the key. Update applies fn and writes
// the result atomically with respect to other updates of the same key, and
// writes nothing when fn reports no change or fails.
type Persister interface {
	Load(ctx context.Context, key string) (*Cart, error)
	Update(ctx context.Context, key string, fn UpdateFunc) (*Cart, error)
	Delete(ctx context.Context, key string) error
}

// Store applies cart mutations and persists every change.
// The cart key is the user ID; a cart is never shared between users.
type Store struct {
	persister Persister
	pricing   Pricing
	logger    zerolog.Logger
}

// NewStore creates a cart store backed by persister.
func NewStore(persister Persister, pricing Pricing, logger zerolog.Logger) *Store {
	return &Store{
		persister: persister,
		pricing:   pricing,
		logger:    logger.With().Str("component", "cart_store").Logger(),
	}
}

// Pricing returns the pricing configuration used for totals.
func (s *Store) Pricing() Pricing {
	return s.pricing
}

// Totals prices the cart with the store's pricing configuration.
func (s *Store) Totals(c *Cart) model.Totals {
	return ComputeTotals(c.Lines(), s.pricing)
}

// Get loads the cart for key.
func (s *Store) Get(ctx context.Context, key string) (*Cart, error) {
	c, err := s.persister.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return c, nil
}

// AddItem adds quantity units of product to the cart.
func (s *Store) AddItem(ctx context.Context, key string, product model.Product, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, model.ErrInvalidQuantity
	}

	line := model.CartLine{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Quantity:  quantity,
	}
	c, err := s.mutate(ctx, key, func(c *Cart) (bool, error) {
		if err := c.Add(line); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("cart", key).
		Str("product_id", product.ID).
		Int("quantity", quantity).
		Msg("item added to cart")

	return c, nil
}

// UpdateQuantity changes a line's quantity by delta, clamped at 1.
// Unknown products leave the cart untouched and nothing is written.
func (s *Store) UpdateQuantity(ctx context.Context, key, productID string, delta int) (*Cart, error) {
	return s.mutate(ctx, key, func(c *Cart) (bool, error) {
		return c.UpdateQuantity(productID, delta), nil
	})
}

// RemoveItem drops a product from the cart.
func (s *Store) RemoveItem(ctx context.Context, key, productID string) (*Cart, error) {
	return s.mutate(ctx, key, func(c *Cart) (bool, error) {
		return c.Remove(productID), nil
	})
}

// Clear empties the cart and deletes its persisted copy.
func (s *Store) Clear(ctx context.Context, key string) error {
	if err := s.persister.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	s.logger.Debug().Str("cart", key).Msg("cart cleared")
	return nil
}

// mutate runs apply through the persister's atomic update. Errors from
// apply are returned as they are; persistence errors are wrapped.
func (s *Store) mutate(ctx context.Context, key string, apply UpdateFunc) (*Cart, error) {
	var applyErr error
	c, err := s.persister.Update(ctx, key, func(c *Cart) (bool, error) {
		changed, err := apply(c)
		applyErr = err
		return changed, err
	})
	if applyErr != nil {
		return nil, applyErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}
	return c, nil
}
