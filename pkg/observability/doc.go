// Package observability provides structured logging, Prometheus
// metrics, health checks and graceful shutdown.
//
// # Logging
//
// Logger wraps log/slog with a JSON handler:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("client_id", id).Info("client converted")
//
// # Metrics
//
// All metrics carry the crm_ prefix and register against an explicit
// registry so tests can use isolated registries:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	router.Use(observability.HTTPMetricsMiddleware(metrics))
//
// # Health
//
// HealthChecker exposes /health, /health/live and /health/ready.
// Liveness always succeeds while the process runs; readiness pings the
// database.
package observability
