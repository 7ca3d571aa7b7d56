package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/cart"
	"storefront/internal/model"

	"github.com/redis/go-redis/v9"
)

// maxUpdateAttempts bounds optimistic retries when a watched cart changes
// between read and write.
const maxUpdateAttempts = 5

// RedisCartStore persists carts as JSON under cart:<key>.
// Every write refreshes the TTL, so abandoned carts expire on their own.
type RedisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCartStore creates a Redis-backed cart store.
func NewRedisCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisCartStore) Load(ctx context.Context, key string) (*cart.Cart, error) {
	return get(ctx, r.client, cacheKey(key))
}

// Update applies fn under WATCH and writes the result in a MULTI/EXEC
// block, retrying when another writer touched the cart in between.
func (r *RedisCartStore) Update(ctx context.Context, key string, fn cart.UpdateFunc) (*cart.Cart, error) {
	k := cacheKey(key)

	var result *cart.Cart
	txf := func(tx *redis.Tx) error {
		c, err := get(ctx, tx, k)
		if err != nil {
			return err
		}
		changed, err := fn(c)
		if err != nil {
			return err
		}
		result = c
		if !changed {
			return nil
		}

		data, err := encodeCart(c)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, data, r.ttl)
			return nil
		})
		if err != nil {
			return fmt.Errorf("redis set failed: %w", err)
		}
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, model.ErrCartConflict
}

func (r *RedisCartStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, cacheKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (r *RedisCartStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// getter is the read side shared by *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func get(ctx context.Context, g getter, k string) (*cart.Cart, error) {
	data, err := g.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return &cart.Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return decodeCart(data)
}

func cacheKey(key string) string {
	return fmt.Sprintf("cart:%s", key)
}

func encodeCart(c *cart.Cart) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal cart failed: %w", err)
	}
	return data, nil
}

func decodeCart(data []byte) (*cart.Cart, error) {
	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &c, nil
}
