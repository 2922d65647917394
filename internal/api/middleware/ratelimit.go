package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/common"
)

// RateLimiter enforces a fixed-window request budget per key, with the
// counters in redis so every instance shares the same budget. Counters are
// independent per key; exhausting one key never touches another's.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// RateLimitResult carries what the boundary layer surfaces as response
// metadata.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Reset      time.Time
	RetryAfter time.Duration
}

func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, limit: limit, window: window, prefix: "ratelimit"}
}

// Allow consumes one unit of the key's budget. The INCR is atomic, so
// concurrent requests for the same key cannot double-spend.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (RateLimitResult, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	pipe := rl.rdb.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	// Only the first request of a window starts the clock.
	pipe.ExpireNX(ctx, redisKey, rl.window)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		// On redis error, fail open to avoid turning a cache outage into an
		// API outage.
		return RateLimitResult{Allowed: true, Limit: rl.limit, Remaining: rl.limit}, fmt.Errorf("redis error: %w", err)
	}

	count := incr.Val()
	window := ttl.Val()
	if window < 0 {
		window = rl.window
	}
	reset := time.Now().Add(window)

	remaining := rl.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	res := RateLimitResult{
		Allowed:   count <= int64(rl.limit),
		Limit:     rl.limit,
		Remaining: remaining,
		Reset:     reset,
	}
	if !res.Allowed {
		res.RetryAfter = window
	}
	return res, nil
}

// Middleware applies the limiter to a route group. The key is the caller's
// user id when authenticated, otherwise the client IP.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)

		res, err := rl.Allow(r.Context(), key)
		if err != nil {
			// Fail-open result already populated; continue serving.
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset.Unix(), 10))

		if !res.Allowed {
			retryAfter := int(res.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			common.RespondWithError(w, http.StatusTooManyRequests, common.ErrRateLimited.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if userID, ok := r.Context().Value(UserIDCtxKey).(string); ok && userID != "" {
		return "user:" + userID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
