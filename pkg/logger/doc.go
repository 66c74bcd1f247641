// Package logger builds log/slog loggers with a small, environment-driven
// configuration surface: level, format (json for production aggregation,
// text for local development) and static attributes.
//
//	log := logger.NewFromConfig(cfg, logger.WithAttr(slog.String("app", "cardbuddy")))
//	log.Info("server starting", slog.String("addr", addr))
package logger
