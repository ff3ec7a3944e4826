// Package ratelimit 提供基于 Redis 的分布式限流与本地令牌桶兜底
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// RateLimiter defines the interface for rate limiting
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit Limit) (*Result, error)
}

// Limit defines the rate limit rule
type Limit struct {
	Rate   int
	Period time.Duration
	Burst  int
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAfter time.Duration
	RetryAfter time.Duration
}

// RedisRateLimiter implements RateLimiter using Redis
type RedisRateLimiter struct {
	limiter *redis_rate.Limiter
}

// NewRedisRateLimiter creates a new RedisRateLimiter
func NewRedisRateLimiter(rdb *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{
		limiter: redis_rate.NewLimiter(rdb),
	}
}

// Allow checks if the request is allowed
func (r *RedisRateLimiter) Allow(ctx context.Context, key string, limit Limit) (*Result, error) {
	res, err := r.limiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   limit.Rate,
		Period: limit.Period,
		Burst:  limit.Burst,
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	return &Result{
		Allowed:    res.Allowed > 0,
		Remaining:  res.Remaining,
		ResetAfter: res.ResetAfter,
		RetryAfter: res.RetryAfter,
	}, nil
}

// LocalRateLimiter 进程内令牌桶，单实例部署或 Redis 不可用时使用
type LocalRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens   float64
	lastFill time.Time
}

func NewLocalRateLimiter() *LocalRateLimiter {
	return &LocalRateLimiter{buckets: make(map[string]*bucket)}
}

func (l *LocalRateLimiter) Allow(ctx context.Context, key string, limit Limit) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(limit.Burst), lastFill: now}
		l.buckets[key] = b
	}

	rate := float64(limit.Rate) / limit.Period.Seconds()
	b.tokens += now.Sub(b.lastFill).Seconds() * rate
	if b.tokens > float64(limit.Burst) {
		b.tokens = float64(limit.Burst)
	}
	b.lastFill = now

	if b.tokens < 1 {
		retry := time.Duration((1 - b.tokens) / rate * float64(time.Second))
		return &Result{Allowed: false, Remaining: 0, RetryAfter: retry, ResetAfter: retry}, nil
	}
	b.tokens--
	return &Result{Allowed: true, Remaining: int(b.tokens)}, nil
}
