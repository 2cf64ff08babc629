// Package views counts post views. Counters live in Redis when one is
// configured; otherwise a no-op counter keeps the rest of the platform
// indifferent to the feature being off.
package views

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// Counter tracks per-post view counts.
type Counter interface {
	// Increment bumps the counter for postID and returns the new total.
	Increment(ctx context.Context, postID string) (int64, error)

	// Get returns the current total for postID.
	Get(ctx context.Context, postID string) (int64, error)
}

// RedisCounter keeps counters in Redis under views:<postID>.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter connects to Redis and verifies the connection.
func NewRedisCounter(ctx context.Context, addr, password string, db int) (*RedisCounter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisCounter{client: client}, nil
}

func key(postID string) string {
	return "views:" + postID
}

// Increment bumps the counter for postID.
func (c *RedisCounter) Increment(ctx context.Context, postID string) (int64, error) {
	n, err := c.client.Incr(ctx, key(postID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment views for %s: %w", postID, err)
	}
	return n, nil
}

// Get returns the current total for postID, zero when never viewed.
func (c *RedisCounter) Get(ctx context.Context, postID string) (int64, error) {
	n, err := c.client.Get(ctx, key(postID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read views for %s: %w", postID, err)
	}
	return n, nil
}

// Close releases the Redis connection.
func (c *RedisCounter) Close() error {
	return c.client.Close()
}

// NopCounter is used when no Redis is configured.
type NopCounter struct{}

func (NopCounter) Increment(ctx context.Context, postID string) (int64, error) { return 0, nil }
func (NopCounter) Get(ctx context.Context, postID string) (int64, error)       { return 0, nil }
