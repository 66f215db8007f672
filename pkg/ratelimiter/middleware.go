package ratelimiter

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
)

// KeyFunc extracts the rate limit key from a request.
type KeyFunc func(r *http.Request) string

// Middleware enforces the limiter per key, answering 429 with a
// Retry-After header when the bucket is exhausted. Requests with an empty
// key bypass the limiter, and limiter errors fail open: dropping
// legitimate handshakes hurts more than briefly over-admitting.
func Middleware(limiter RateLimiter, key KeyFunc, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := limiter.Allow(r.Context(), k)
			if err != nil {
				log.WarnContext(r.Context(), "rate limiter unavailable", slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed() {
				retryAfter := int(result.RetryAfter().Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimiter is implemented by Bucket.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
	AllowN(ctx context.Context, key string, n int) (*Result, error)
}
