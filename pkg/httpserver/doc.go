// Package httpserver wraps net/http's Server with graceful shutdown,
// environment-driven configuration and health check handlers.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server exited", logger.Error(err))
//	}
//
// Run blocks until the context is cancelled, SIGINT/SIGTERM is received,
// or the listener fails, and drains in-flight requests before returning.
package httpserver
