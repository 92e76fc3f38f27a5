package api

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/marvey11/codescape-financial-api/pkg/config"
	"github.com/marvey11/codescape-financial-api/pkg/logger"
	"github.com/marvey11/codescape-financial-api/pkg/redis"
)

// Limiter decides whether a caller may issue another request
type Limiter interface {
	Allow(ctx context.Context, caller string) (bool, error)
}

// NewLimiter returns a Redis backed limiter when Redis is enabled and a
// process-local token bucket otherwise.
func NewLimiter(cfg *config.Config, client *redis.Client) Limiter {
	if client != nil && client.Enabled() {
		return &redisLimiter{
			limiter: redis.NewRateLimiter(client, "quotes"),
			cfg:     redis.IngestRateLimit(cfg.RateLimit.RPS),
		}
	}
	return NewLocalLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

type redisLimiter struct {
	limiter *redis.RateLimiter
	cfg     redis.RateLimitConfig
}

func (l *redisLimiter) Allow(ctx context.Context, caller string) (bool, error) {
	allowed, _, err := l.limiter.Allow(ctx, l.cfg.For(caller))
	return allowed, err
}

// LocalLimiter keeps one token bucket per caller in memory
type LocalLimiter struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewLocalLimiter creates a limiter refilling rps tokens per second up to burst
func NewLocalLimiter(rps, burst int) *LocalLimiter {
	if burst < 1 {
		burst = 1
	}
	return &LocalLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		buckets: make(map[string]*rate.Limiter),
	}
}

// Allow implements Limiter
func (l *LocalLimiter) Allow(_ context.Context, caller string) (bool, error) {
	l.mu.Lock()
	b, ok := l.buckets[caller]
	if !ok {
		b = rate.NewLimiter(l.rps, l.burst)
		l.buckets[caller] = b
	}
	l.mu.Unlock()

	return b.Allow(), nil
}

// rateLimitMiddleware rejects callers over budget with 429. Limiter failures
// let the request through.
func rateLimitMiddleware(limiter Limiter, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := clientIP(r)

			allowed, err := limiter.Allow(r.Context(), caller)
			if err != nil {
				log.WithError(err).WithField("caller", caller).Warn("Rate limiter unavailable")
			} else if !allowed {
				writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
