package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/plotline-gh/marketplace/backend-go/internal/config"
)

// RateLimiter enforces per-user daily quotas in Redis
type RateLimiter interface {
	// Consume atomically checks the user's count for today against limit and
	// increments it when allowed. Returns: allowed bool, used int64, error
	Consume(ctx context.Context, userID uint, limit config.Limit, now time.Time) (bool, int64, error)

	// Release gives back one unit consumed today, e.g. when the write it guarded failed
	Release(ctx context.Context, userID uint, now time.Time) error

	// Remaining returns how many units are left today, or -1 when unlimited
	Remaining(ctx context.Context, userID uint, limit config.Limit, now time.Time) (int64, error)

	// Close closes the Redis connection
	Close() error
}

// consumeScript returns {allowed, count}. The key expires at the next UTC midnight.
var consumeScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local limit = tonumber(ARGV[1])
if current >= limit then
  return {0, current}
end
current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {1, current}
`)

// releaseScript decrements without going below zero
var releaseScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current <= 0 then
  return 0
end
return redis.call('DECR', KEYS[1])
`)

type redisRateLimiter struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRateLimiter creates a new Redis-based rate limiter
func NewRateLimiter(cfg *config.Config, logger *slog.Logger) (RateLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       int(cfg.RedisDB),
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("❌ [RateLimiter] Failed to connect to Redis", "error", err)
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("✅ [RateLimiter] Connected to Redis",
		"host", cfg.RedisHost,
		"port", cfg.RedisPort,
	)

	return NewRedisRateLimiter(client, logger), nil
}

// NewRedisRateLimiter wraps an existing client
func NewRedisRateLimiter(client *redis.Client, logger *slog.Logger) RateLimiter {
	return &redisRateLimiter{
		client: client,
		logger: logger,
	}
}

// dailyKey generates the Redis key for a user's daily message count
// Format: quota:messages:{userID}:{YYYY-MM-DD}
func dailyKey(userID uint, now time.Time) string {
	return fmt.Sprintf("quota:messages:%d:%s", userID, now.UTC().Format("2006-01-02"))
}

// untilMidnight returns the time left in now's UTC day
func untilMidnight(now time.Time) time.Duration {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	return midnight.Sub(now)
}

func (r *redisRateLimiter) Consume(ctx context.Context, userID uint, limit config.Limit, now time.Time) (bool, int64, error) {
	if limit.IsUnlimited() {
		return true, 0, nil
	}

	ttl := untilMidnight(now).Milliseconds()
	res, err := consumeScript.Run(ctx, r.client, []string{dailyKey(userID, now)}, int64(limit), ttl).Slice()
	if err != nil {
		r.logger.Error("❌ [RateLimiter] Failed to consume daily quota", "error", err, "user_id", userID)
		return false, 0, err
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("unexpected quota script reply: %v", res)
	}

	allowed, _ := res[0].(int64)
	used, _ := res[1].(int64)
	return allowed == 1, used, nil
}

func (r *redisRateLimiter) Release(ctx context.Context, userID uint, now time.Time) error {
	if err := releaseScript.Run(ctx, r.client, []string{dailyKey(userID, now)}).Err(); err != nil {
		r.logger.Error("❌ [RateLimiter] Failed to release daily quota", "error", err, "user_id", userID)
		return err
	}
	return nil
}

func (r *redisRateLimiter) Remaining(ctx context.Context, userID uint, limit config.Limit, now time.Time) (int64, error) {
	if limit.IsUnlimited() {
		return -1, nil
	}

	count, err := r.client.Get(ctx, dailyKey(userID, now)).Int64()
	if err == redis.Nil {
		return int64(limit), nil
	}
	if err != nil {
		return 0, err
	}

	remaining := int64(limit) - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (r *redisRateLimiter) Close() error {
	return r.client.Close()
}

// NoOpRateLimiter is a rate limiter that always allows requests
// Used when Redis is not available
type NoOpRateLimiter struct {
	logger *slog.Logger
}

// NewNoOpRateLimiter creates a no-op rate limiter
func NewNoOpRateLimiter(logger *slog.Logger) RateLimiter {
	logger.Warn("⚠️ [RateLimiter] Using no-op rate limiter - daily quotas fall back to database counts")
	return &NoOpRateLimiter{logger: logger}
}

func (r *NoOpRateLimiter) Consume(ctx context.Context, userID uint, limit config.Limit, now time.Time) (bool, int64, error) {
	return true, 0, nil
}

func (r *NoOpRateLimiter) Release(ctx context.Context, userID uint, now time.Time) error {
	return nil
}

func (r *NoOpRateLimiter) Remaining(ctx context.Context, userID uint, limit config.Limit, now time.Time) (int64, error) {
	return -1, nil
}

func (r *NoOpRateLimiter) Close() error {
	return nil
}
