// Package cache provides cart.Persister implementations.
package cache

import (
	"context"
	"sync"

	"storefront/internal/cart"
)

// MemoryCartStore keeps carts in process memory. It is used when Redis is
// disabled and in tests; carts do not survive a restart.
type MemoryCartStore struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

// NewMemoryCartStore creates an empty in-memory cart store.
func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{carts: make(map[string][]byte)}
}

// Load returns the stored cart for key, or an empty cart.
func (m *MemoryCartStore) Load(_ context.Context, key string) (*cart.Cart, error) {
	m.mu.RLock()
	data, ok := m.carts[key]
	m.mu.RUnlock()
	if !ok {
		return &cart.Cart{}, nil
	}
	return decodeCart(data)
}

// Update applies fn to the stored cart while holding the write lock.
func (m *MemoryCartStore) Update(_ context.Context, key string, fn cart.UpdateFunc) (*cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := &cart.Cart{}
	if data, ok := m.carts[key]; ok {
		var err error
		if c, err = decodeCart(data); err != nil {
			return nil, err
		}
	}

	changed, err := fn(c)
	if err != nil {
		return nil, err
	}
	if !changed {
		return c, nil
	}

	data, err := encodeCart(c)
	if err != nil {
		return nil, err
	}
	m.carts[key] = data
	return c, nil
}

// Delete removes the cart stored under key.
func (m *MemoryCartStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.carts, key)
	m.mu.Unlock()
	return nil
}
