package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Ensure Redis implements Store
var _ Store = (*Redis)(nil)

// keyPrefix namespaces this application's keys in a shared instance.
const keyPrefix = "moneynotes:"

// Redis is a Store backed by a Redis instance.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed store around an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Read returns the value for key.
func (r *Redis) Read(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return val, true, nil
}

// Write stores value under key. Blobs have no TTL; they live until
// replaced or deleted.
func (r *Redis) Write(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}
