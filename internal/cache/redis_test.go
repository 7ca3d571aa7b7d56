package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"storefront/internal/cart"
	"storefront/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisCartStore pointing at it.
func setupTestRedis(t *testing.T) (*RedisCartStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return NewRedisCartStore(client, time.Hour), mr
}

func sampleCart() *cart.Cart {
	return cart.New(
		model.CartLine{ProductID: "P1", Name: "Mug", UnitPrice: decimal.NewFromInt(100), Quantity: 2},
		model.CartLine{ProductID: "P2", Name: "Lamp", UnitPrice: decimal.RequireFromString("249.99"), Quantity: 1},
	)
}

// put stores c under key through Update.
func put(t *testing.T, store cart.Persister, key string, c *cart.Cart) {
	t.Helper()
	_, err := store.Update(context.Background(), key, func(stored *cart.Cart) (bool, error) {
		for _, l := range c.Lines() {
			if err := stored.Add(l); err != nil {
				return false, err
			}
		}
		return true, nil
	})
	require.NoError(t, err)
}

func TestRedisCartStore_UpdateAndLoad(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	put(t, store, "user-1", sampleCart())
	assert.True(t, mr.Exists("cart:user-1"))

	loaded, err := store.Load(ctx, "user-1")
	require.NoError(t, err)

	lines := loaded.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "P1", lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.True(t, lines[1].UnitPrice.Equal(decimal.RequireFromString("249.99")))
}

func TestRedisCartStore_LoadMissingReturnsEmptyCart(t *testing.T) {
	store, _ := setupTestRedis(t)

	loaded, err := store.Load(context.Background(), "nobody")

	require.NoError(t, err)
	assert.True(t, loaded.IsEmpty())
}

func TestRedisCartStore_LoadInvalidJSON(t *testing.T) {
	store, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("cart:user-1", "{not json"))

	loaded, err := store.Load(context.Background(), "user-1")

	require.Error(t, err)
	assert.Nil(t, loaded)
	assert.Contains(t, err.Error(), "unmarshal cart failed")
}

func TestRedisCartStore_UpdateSetsTTL(t *testing.T) {
	store, mr := setupTestRedis(t)

	put(t, store, "user-1", sampleCart())

	assert.Equal(t, time.Hour, mr.TTL("cart:user-1"))

	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists("cart:user-1"))
}

func TestRedisCartStore_Delete(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	put(t, store, "user-1", sampleCart())
	require.NoError(t, store.Delete(ctx, "user-1"))

	assert.False(t, mr.Exists("cart:user-1"))

	// deleting again is not an error
	require.NoError(t, store.Delete(ctx, "user-1"))
}

func TestRedisCartStore_ConnectionError(t *testing.T) {
	store, mr := setupTestRedis(t)
	mr.Close()

	_, err := store.Load(context.Background(), "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis get failed")

	_, err = store.Update(context.Background(), "user-1", func(*cart.Cart) (bool, error) { return true, nil })
	require.Error(t, err)
}

func TestRedisCartStore_UpdateUnchangedWritesNothing(t *testing.T) {
	store, mr := setupTestRedis(t)

	c, err := store.Update(context.Background(), "user-1", func(*cart.Cart) (bool, error) { return false, nil })

	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
	assert.False(t, mr.Exists("cart:user-1"))
}

func TestRedisCartStore_UpdateErrorWritesNothing(t *testing.T) {
	store, mr := setupTestRedis(t)
	boom := errors.New("boom")

	_, err := store.Update(context.Background(), "user-1", func(c *cart.Cart) (bool, error) {
		require.NoError(t, c.Add(model.CartLine{ProductID: "P1", UnitPrice: decimal.NewFromInt(1), Quantity: 1}))
		return true, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("cart:user-1"))
}

func TestRedisCartStore_UpdateRetriesAfterConcurrentWrite(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	attempts := 0
	c, err := store.Update(ctx, "user-1", func(c *cart.Cart) (bool, error) {
		attempts++
		if attempts == 1 {
			// another request writes the cart between our read and our write
			other, err := encodeCart(cart.New(model.CartLine{ProductID: "P9", Name: "Rug", UnitPrice: decimal.NewFromInt(900), Quantity: 1}))
			require.NoError(t, err)
			require.NoError(t, store.client.Set(ctx, "cart:user-1", other, time.Hour).Err())
		}
		return true, c.Add(model.CartLine{ProductID: "P1", Name: "Mug", UnitPrice: decimal.NewFromInt(100), Quantity: 1})
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Len(t, c.Lines(), 2)

	loaded, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	_, hasRug := loaded.Line("P9")
	_, hasMug := loaded.Line("P1")
	assert.True(t, hasRug)
	assert.True(t, hasMug)
}

func TestRedisCartStore_UpdateGivesUpUnderContention(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	attempts := 0
	_, err := store.Update(ctx, "user-1", func(c *cart.Cart) (bool, error) {
		attempts++
		require.NoError(t, store.client.Set(ctx, "cart:user-1", fmt.Sprintf(`{"lines":[],"n":%d}`, attempts), time.Hour).Err())
		return true, nil
	})

	assert.ErrorIs(t, err, model.ErrCartConflict)
	assert.Equal(t, maxUpdateAttempts, attempts)
}

func TestRedisCartStore_ConcurrentAddsKeepEveryLine(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded []string
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("P%d", i)
			_, err := store.Update(ctx, "user-1", func(c *cart.Cart) (bool, error) {
				return true, c.Add(model.CartLine{ProductID: id, UnitPrice: decimal.NewFromInt(10), Quantity: 1})
			})
			if err == nil {
				mu.Lock()
				succeeded = append(succeeded, id)
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, model.ErrCartConflict)
		}(i)
	}
	wg.Wait()

	loaded, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, succeeded)
	assert.Len(t, loaded.Lines(), len(succeeded))
	for _, id := range succeeded {
		_, ok := loaded.Line(id)
		assert.True(t, ok, id)
	}
}

func TestRedisCartStore_Ping(t *testing.T) {
	store, _ := setupTestRedis(t)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestMemoryCartStore(t *testing.T) {
	store := NewMemoryCartStore()
	ctx := context.Background()

	empty, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	c, err := store.Update(ctx, "user-1", func(c *cart.Cart) (bool, error) {
		for _, l := range sampleCart().Lines() {
			if err := c.Add(l); err != nil {
				return false, err
			}
		}
		return true, nil
	})
	require.NoError(t, err)

	// later mutations of the returned cart do not leak into the store
	c.Clear()

	loaded, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, loaded.Lines(), 2)

	require.NoError(t, store.Delete(ctx, "user-1"))
	loaded, err = store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, loaded.IsEmpty())
}

func TestMemoryCartStore_ConcurrentUpdatesKeepEveryLine(t *testing.T) {
	store := NewMemoryCartStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Update(ctx, "user-1", func(c *cart.Cart) (bool, error) {
				return true, c.Add(model.CartLine{ProductID: fmt.Sprintf("P%d", i), UnitPrice: decimal.NewFromInt(10), Quantity: 1})
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	loaded, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, loaded.Lines(), 50)
}

func TestStoresSatisfyPersister(t *testing.T) {
	var _ cart.Persister = (*RedisCartStore)(nil)
	var _ cart.Persister = (*MemoryCartStore)(nil)
}
