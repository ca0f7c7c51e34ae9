// Package redis implements storage.KV on Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/glass-bazaar/internal/storage"
)

var _ storage.KV = (*KV)(nil)

// KV stores each key as a Redis string under a common prefix. Every write
// refreshes the key's TTL, so abandoned carts expire on their own.
type KV struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New creates a Redis-backed KV. A zero ttl keeps keys forever.
func New(client *redis.Client, prefix string, ttl time.Duration) *KV {
	return &KV{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Get retrieves the value stored under key.
func (r *KV) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	return data, nil
}

// Set stores value under key with the configured TTL.
func (r *KV) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Ping checks connectivity.
func (r *KV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
