package middleware

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plotline-gh/marketplace/backend-go/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, RateLimiter) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := NewRedisRateLimiter(client, discardLogger())
	t.Cleanup(func() { _ = limiter.Close() })

	return mr, limiter
}

func TestRedisRateLimiter_Consume(t *testing.T) {
	mr, limiter := setupMiniRedis(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	for i := int64(1); i <= 3; i++ {
		allowed, used, err := limiter.Consume(ctx, 42, 3, now)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, i, used)
	}

	allowed, used, err := limiter.Consume(ctx, 42, 3, now)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, int64(3), used)

	// Counter expires at the next UTC midnight
	key := dailyKey(42, now)
	assert.Equal(t, 6*time.Hour, mr.TTL(key))

	// Other users are independent
	allowed, _, err = limiter.Consume(ctx, 43, 3, now)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_NewDayResets(t *testing.T) {
	_, limiter := setupMiniRedis(t)
	ctx := context.Background()
	day := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)

	allowed, _, err := limiter.Consume(ctx, 1, 1, day)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, _, err = limiter.Consume(ctx, 1, 1, day)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, used, err := limiter.Consume(ctx, 1, 1, day.Add(2*time.Minute))
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(1), used)
}

func TestRedisRateLimiter_Unlimited(t *testing.T) {
	mr, limiter := setupMiniRedis(t)
	ctx := context.Background()
	now := time.Now()

	allowed, used, err := limiter.Consume(ctx, 7, config.Unlimited, now)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Zero(t, used)
	assert.False(t, mr.Exists(dailyKey(7, now)))

	remaining, err := limiter.Remaining(ctx, 7, config.Unlimited, now)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), remaining)
}

func TestRedisRateLimiter_ZeroLimitDenies(t *testing.T) {
	_, limiter := setupMiniRedis(t)

	allowed, used, err := limiter.Consume(context.Background(), 9, 0, time.Now())
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Zero(t, used)
}

func TestRedisRateLimiter_ReleaseAndRemaining(t *testing.T) {
	_, limiter := setupMiniRedis(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	remaining, err := limiter.Remaining(ctx, 5, 10, now)
	require.NoError(t, err)
	assert.Equal(t, int64(10), remaining)

	_, _, err = limiter.Consume(ctx, 5, 10, now)
	require.NoError(t, err)
	_, _, err = limiter.Consume(ctx, 5, 10, now)
	require.NoError(t, err)

	remaining, err = limiter.Remaining(ctx, 5, 10, now)
	require.NoError(t, err)
	assert.Equal(t, int64(8), remaining)

	require.NoError(t, limiter.Release(ctx, 5, now))
	remaining, err = limiter.Remaining(ctx, 5, 10, now)
	require.NoError(t, err)
	assert.Equal(t, int64(9), remaining)

	// Releasing an empty counter is a no-op
	require.NoError(t, limiter.Release(ctx, 99, now))
	remaining, err = limiter.Remaining(ctx, 99, 10, now)
	require.NoError(t, err)
	assert.Equal(t, int64(10), remaining)
}

func TestRedisRateLimiter_RedisDown(t *testing.T) {
	mr, limiter := setupMiniRedis(t)
	mr.SetError("LOADING Redis is loading the dataset in memory")

	allowed, _, err := limiter.Consume(context.Background(), 1, 5, time.Now())
	assert.Error(t, err)
	assert.False(t, allowed)
}

func TestNoOpRateLimiter(t *testing.T) {
	limiter := NewNoOpRateLimiter(discardLogger())
	ctx := context.Background()

	allowed, _, err := limiter.Consume(ctx, 1, 0, time.Now())
	require.NoError(t, err)
	assert.True(t, allowed)

	remaining, err := limiter.Remaining(ctx, 1, 5, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(-1), remaining)
	assert.NoError(t, limiter.Release(ctx, 1, time.Now()))
	assert.NoError(t, limiter.Close())
}
