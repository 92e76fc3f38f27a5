package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter implements sliding window rate limiting using Redis, so every
// API replica shares the same budget.
// ⭐ SSOT: distributed rate limiting lives here only
type RateLimiter struct {
	client *Client
	prefix string
}

// RateLimitConfig defines rate limit parameters
type RateLimitConfig struct {
	Key    string        // Unique identifier (e.g., "ingest")
	Limit  int           // Maximum requests allowed
	Window time.Duration // Time window
}

// IngestRateLimit is the budget of quote ingestion requests per second
func IngestRateLimit(rps int) RateLimitConfig {
	return RateLimitConfig{
		Key:    "ingest",
		Limit:  rps,
		Window: time.Second,
	}
}

// For returns a copy of cfg scoped to one caller
func (cfg RateLimitConfig) For(caller string) RateLimitConfig {
	cfg.Key = cfg.Key + ":" + caller
	return cfg
}

var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)

	if count < limit then
		redis.call('ZADD', key, now, now .. '-' .. math.random())
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1}
	else
		return {0, 0}
	end
`)

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
	}
}

// Allow checks if a request is allowed under the rate limit
// Returns (allowed, remaining, error)
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	if !r.client.Enabled() {
		// If Redis is disabled, allow all requests
		return true, cfg.Limit, nil
	}

	key := r.Key(cfg)
	now := time.Now().UnixMilli()
	windowStart := now - cfg.Window.Milliseconds()

	result, err := slidingWindow.Run(ctx, r.client.Redis(), []string{key},
		now,
		windowStart,
		cfg.Limit,
		cfg.Window.Milliseconds(),
	).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script failed: %w", err)
	}

	allowed := result[0].(int64) == 1
	remaining := int(result[1].(int64))

	return allowed, remaining, nil
}

// Key returns the Redis key that holds the window of cfg
func (r *RateLimiter) Key(cfg RateLimitConfig) string {
	return fmt.Sprintf("%s:ratelimit:%s", r.prefix, cfg.Key)
}

// Wait blocks until a request is allowed or context is cancelled
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		allowed, _, err := r.Allow(ctx, cfg)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// Pacer binds a RateLimiter to a single budget
type Pacer struct {
	limiter *RateLimiter
	cfg     RateLimitConfig
}

// Pacer returns a Pacer that waits on cfg
func (r *RateLimiter) Pacer(cfg RateLimitConfig) *Pacer {
	return &Pacer{limiter: r, cfg: cfg}
}

// Wait blocks until the bound budget allows another request
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx, p.cfg)
}
