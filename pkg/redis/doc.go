// Package redis provides Redis connection management with retry logic and
// a readiness check for probe endpoints.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	router.Get("/readyz", httpserver.HealthCheckHandler(ctx, log, redis.Healthcheck(client)))
package redis
