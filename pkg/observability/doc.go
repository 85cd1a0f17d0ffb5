// Package observability provides logging, metrics and tracing setup.
//
// # Logging
//
// Loggers are plain *logrus.Logger values:
//
//	logger := observability.NewLogger("debug", os.Stderr)
//	logger.WithField("plugin", "SimpleOovPlugin").Info("plugin ready")
//
// # Metrics
//
// Metrics are registered on a caller-owned registry so tests can use a fresh one:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	http.Handle("/metrics", observability.Handler(registry))
//
// All Record* methods are no-ops on a nil *Metrics.
//
// # Tracing
//
// InitTracing installs a global OTLP/gRPC tracer provider; without it spans
// go to the no-op provider.
package observability
