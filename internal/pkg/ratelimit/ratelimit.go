// Package ratelimit implements a fixed-window attempt counter backed by Redis.
//
// Each (identity, endpoint) pair gets its own counter key. The window starts
// on the first attempt and expires after the configured duration; attempts
// beyond the limit are rejected until the window lapses.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result reports the outcome of a single attempt against the limiter.
type Result struct {
	// Allowed is false when the attempt exceeded the window limit.
	Allowed bool
	// Count is the number of attempts recorded in the current window.
	Count int64
	// RetryAfter is how long until the window resets. Only meaningful when
	// Allowed is false.
	RetryAfter time.Duration
}

// Limiter counts attempts per key within a fixed window.
type Limiter interface {
	// Allow records one attempt for the key and reports whether it is within
	// the limit. Store failures are returned to the caller, which is expected
	// to fail open.
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (Result, error)
	// Reset clears the counter for the key.
	Reset(ctx context.Context, key string) error
}

// Redis is a Limiter backed by a Redis counter per key.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis creates a Redis-backed limiter. All keys are namespaced under the
// given prefix.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "ratelimit"
	}

	return &Redis{client: client, prefix: prefix}
}

// Allow increments the window counter for the key and compares it to limit.
func (r *Redis) Allow(ctx context.Context, key string, limit int64, window time.Duration) (Result, error) {
	fullKey := r.key(key)

	count, err := r.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: incr %q: %w", fullKey, err)
	}

	// The first attempt opens the window.
	if count == 1 {
		if err := r.client.Expire(ctx, fullKey, window).Err(); err != nil {
			return Result{}, fmt.Errorf("ratelimit: expire %q: %w", fullKey, err)
		}
	}

	if count > limit {
		retryAfter, err := r.client.TTL(ctx, fullKey).Result()
		if err != nil || retryAfter < 0 {
			retryAfter = window
		}

		return Result{Allowed: false, Count: count, RetryAfter: retryAfter}, nil
	}

	return Result{Allowed: true, Count: count}, nil
}

// Reset removes the window counter for the key.
func (r *Redis) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("ratelimit: del %q: %w", r.key(key), err)
	}

	return nil
}

func (r *Redis) key(key string) string {
	return r.prefix + ":" + key
}
