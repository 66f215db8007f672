package ratelimiter_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auxeira/realtime/pkg/ratelimiter"
)

type failingLimiter struct{}

func (failingLimiter) Allow(ctx context.Context, key string) (*ratelimiter.Result, error) {
	return nil, errors.New("store down")
}

func (failingLimiter) AllowN(ctx context.Context, key string, n int) (*ratelimiter.Result, error) {
	return nil, errors.New("store down")
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	byRemoteAddr := func(r *http.Request) string { return r.RemoteAddr }

	t.Run("allows within limit then answers 429", func(t *testing.T) {
		t.Parallel()

		store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
		t.Cleanup(store.Close)
		limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{
			Capacity:       2,
			RefillRate:     1,
			RefillInterval: time.Hour,
		})
		require.NoError(t, err)

		handler := ratelimiter.Middleware(limiter, byRemoteAddr, discard)(okHandler)

		for range 2 {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest("GET", "/ws", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		}

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/ws", nil))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	})

	t.Run("empty key bypasses the limiter", func(t *testing.T) {
		t.Parallel()

		store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
		t.Cleanup(store.Close)
		limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{
			Capacity:       1,
			RefillRate:     1,
			RefillInterval: time.Hour,
		})
		require.NoError(t, err)

		noKey := func(r *http.Request) string { return "" }
		handler := ratelimiter.Middleware(limiter, noKey, discard)(okHandler)

		for range 5 {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest("GET", "/ws", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("limiter errors fail open", func(t *testing.T) {
		t.Parallel()

		handler := ratelimiter.Middleware(failingLimiter{}, byRemoteAddr, discard)(okHandler)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/ws", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
