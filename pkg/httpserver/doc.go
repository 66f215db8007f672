// Package httpserver provides an HTTP server with graceful shutdown wired
// to SIGINT/SIGTERM and context cancellation.
//
//	srv := httpserver.NewFromConfig(cfg,
//		httpserver.WithLogger(log),
//		httpserver.WithStopHook(func(log *slog.Logger) {
//			gw.Shutdown(context.Background())
//		}),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server exited", logger.Error(err))
//	}
//
// HealthCheckHandler serves probe endpoints; pass dependency check
// functions to turn a liveness probe into a readiness probe.
package httpserver
