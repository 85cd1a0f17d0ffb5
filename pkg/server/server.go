// Package server exposes an analyzer over HTTP.
//
// Routes:
//
//	POST /v1/oov        generate OOV candidates for a text
//	GET  /v1/plugins    list the active providers
//	GET  /healthz       liveness and provider count
//	GET  /metrics       Prometheus metrics, when a registry is configured
package server

import (
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/platinummonkey/morph/pkg/analyzer"
	"github.com/platinummonkey/morph/pkg/config"
	"github.com/platinummonkey/morph/pkg/httputil"
	"github.com/platinummonkey/morph/pkg/middleware"
	"github.com/platinummonkey/morph/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server represents the OOV HTTP API
type Server struct {
	analyzer *analyzer.Analyzer
	router   *mux.Router
	cfg      config.ServerConfig
	log      *logrus.Logger
	metrics  *observability.Metrics
	registry *prometheus.Registry
	cache    ResponseCache
	limiter  middleware.Limiter
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(log *logrus.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics records request metrics and serves registry on /metrics
func WithMetrics(m *observability.Metrics, registry *prometheus.Registry) Option {
	return func(s *Server) {
		s.metrics = m
		s.registry = registry
	}
}

// WithCache replaces the in-memory response cache
func WithCache(c ResponseCache) Option {
	return func(s *Server) {
		s.cache = c
	}
}

// WithRateLimiter replaces the in-memory rate limiter built from the settings
func WithRateLimiter(l middleware.Limiter) Option {
	return func(s *Server) {
		s.limiter = l
	}
}

// NewServer creates a new API server
func NewServer(a *analyzer.Analyzer, cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		analyzer: a,
		router:   mux.NewRouter(),
		cfg:      cfg,
		log:      logrus.New(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cache == nil && cfg.CacheEntries > 0 {
		s.cache = NewMemoryCache(cfg.CacheEntries, cfg.CacheTTL)
	}
	if s.limiter == nil && cfg.RateLimit > 0 {
		s.limiter = middleware.NewRateLimiter(RateLimitConfig(cfg))
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	s.router.Use(httputil.RequestID, httputil.Recovery(s.log), httputil.Logging(s.log, s.observe))

	s.router.Handle("/v1/oov", s.limited(s.generateOOV)).Methods(http.MethodPost)
	s.router.Handle("/v1/plugins", s.limited(s.listPlugins)).Methods(http.MethodGet)

	s.router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)

	if s.registry != nil {
		s.router.Handle("/metrics", observability.Handler(s.registry)).Methods(http.MethodGet)
	}
}

// limited applies the rate limiter, when one is configured, to a /v1 handler
func (s *Server) limited(h http.HandlerFunc) http.Handler {
	if s.limiter == nil {
		return h
	}
	return middleware.RateLimit(s.limiter, s.log)(h)
}

func (s *Server) observe(r *http.Request, status int, duration time.Duration) {
	path := r.URL.Path
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			path = tmpl
		}
	}
	s.metrics.RecordHTTPRequest(r.Method, path, status, duration)
}

// RateLimitConfig converts the server settings into limiter settings
func RateLimitConfig(cfg config.ServerConfig) *middleware.RateLimitConfig {
	return &middleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit,
		WindowDuration:    cfg.RateLimitWindow,
		BurstSize:         cfg.RateLimitBurst,
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the router wrapped with OpenTelemetry instrumentation
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "morph-oov")
}

// HTTPServer returns an *http.Server configured from the server settings
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         net.JoinHostPort(s.cfg.Host, s.cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
}
