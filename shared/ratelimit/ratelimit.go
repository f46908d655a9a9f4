// Package ratelimit implements Redis-backed fixed-window attempt counters.
//
// Counters use INCR with an EXPIRE set on the first hit of a window. Keys have the form
// "rl:<scope>:<key>", for example "rl:login:203.0.113.7".
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrRateLimited is returned once a key has used up its attempts for the current window.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnavailable wraps Redis failures.
	ErrUnavailable = errors.New("rate limiter unavailable")
)

// Config holds rate limiter tuning parameters.
type Config struct {
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	MaxAttempts   int           `env:"RATE_LIMIT_MAX_ATTEMPTS" envDefault:"5"`
	Window        time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`
}

// Enabled reports whether a Redis address was configured.
func (c Config) Enabled() bool {
	return c.RedisAddr != ""
}

// Limiter counts attempts per scope and key.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a Limiter backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// NewClient opens a Redis client for cfg.
func NewClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}

// Allow records one attempt for key in scope and returns ErrRateLimited when the
// attempt exceeds the configured budget.
func (l *Limiter) Allow(ctx context.Context, scope, key string) error {
	count, err := l.incrementWithTTL(ctx, counterKey(scope, key), l.config.Window)
	if err != nil {
		return err
	}

	if count > int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}

	return nil
}

// Reset clears the counter for key in scope.
func (l *Limiter) Reset(ctx context.Context, scope, key string) error {
	if err := l.redis.Del(ctx, counterKey(scope, key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	return count, nil
}

func counterKey(scope, key string) string {
	return "rl:" + scope + ":" + key
}
