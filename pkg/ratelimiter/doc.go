// Package ratelimiter implements token bucket rate limiting with pluggable
// storage and HTTP middleware.
//
//	store := ratelimiter.NewMemoryStore()
//	limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       10,
//		RefillRate:     1,
//		RefillInterval: 3 * time.Second,
//	})
//	if err != nil {
//		return err
//	}
//	router.With(ratelimiter.Middleware(limiter, byClientIP, log)).Handle("/ws", wsHandler)
//
// The middleware fails open when the store errors so a limiter outage
// never takes down connection handling with it.
package ratelimiter
