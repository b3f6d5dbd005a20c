package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedis(client, "ratelimit"), mr
}

func TestAllowWithinLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		res, err := limiter.Allow(ctx, "login:42", 5, time.Minute)
		require.NoError(t, err)
		require.True(t, res.Allowed)
		require.Equal(t, int64(i), res.Count)
	}
}

func TestAllowRejectsBeyondLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := limiter.Allow(ctx, "login:42", 5, time.Minute)
		require.NoError(t, err)
	}

	res, err := limiter.Allow(ctx, "login:42", 5, time.Minute)
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestWindowExpiryResetsCounter(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := limiter.Allow(ctx, "login:42", 5, time.Minute)
		require.NoError(t, err)
	}

	mr.FastForward(time.Minute + time.Second)

	res, err := limiter.Allow(ctx, "login:42", 5, time.Minute)
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.Equal(t, int64(1), res.Count)
}

func TestKeysAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := limiter.Allow(ctx, "login:42", 5, time.Minute)
		require.NoError(t, err)
	}

	res, err := limiter.Allow(ctx, "login:43", 5, time.Minute)
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, "2fa:42", 5, time.Minute)
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestResetClearsCounter(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := limiter.Allow(ctx, "login:42", 5, time.Minute)
		require.NoError(t, err)
	}

	require.NoError(t, limiter.Reset(ctx, "login:42"))

	res, err := limiter.Allow(ctx, "login:42", 5, time.Minute)
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.Equal(t, int64(1), res.Count)
}

func TestAllowReturnsErrorWhenStoreDown(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	mr.Close()

	_, err := limiter.Allow(context.Background(), "login:42", 5, time.Minute)
	require.Error(t, err)
}
