package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"taskmanager/internal/common"
)

// RateLimiter enforces a fixed request ceiling per client per window, shared by all routes.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
	logger *zap.Logger
}

func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration, prefix string, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{rdb: rdb, limit: limit, window: window, prefix: prefix, logger: logger}
}

type rateDecision struct {
	allowed   bool
	remaining int
	reset     time.Duration
}

func (l *RateLimiter) take(ctx context.Context, clientID string) (rateDecision, error) {
	key := l.prefix + ":" + clientID

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return rateDecision{}, fmt.Errorf("ratelimit incr: %w", err)
	}
	// A key without a TTL (first hit, or an earlier EXPIRE that failed) opens a window here.
	ttl, err := l.rdb.TTL(ctx, key).Result()
	if err != nil {
		return rateDecision{}, fmt.Errorf("ratelimit ttl: %w", err)
	}
	if ttl < 0 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return rateDecision{}, fmt.Errorf("ratelimit expire: %w", err)
		}
		ttl = l.window
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return rateDecision{allowed: count <= int64(l.limit), remaining: remaining, reset: ttl}, nil
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision, err := l.take(r.Context(), clientIP(r))
		if err != nil {
			// Fail open: Redis trouble must not take the API down.
			l.logger.Warn("rate limiter unavailable", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		resetSeconds := strconv.Itoa(int(decision.reset.Round(time.Second).Seconds()))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.remaining))
		w.Header().Set("X-RateLimit-Reset", resetSeconds)

		if !decision.allowed {
			w.Header().Set("Retry-After", resetSeconds)
			common.RespondWithError(w, http.StatusTooManyRequests, "Too many requests, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP keys on RemoteAddr, which chi's RealIP rewrites only when proxy headers are trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
