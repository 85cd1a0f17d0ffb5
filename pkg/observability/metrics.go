package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Plugin resolution metrics
	PluginsResolvedTotal *prometheus.CounterVec
	PluginResolveErrors  *prometheus.CounterVec
	PluginSetupDuration  *prometheus.HistogramVec
	PluginsActive        *prometheus.GaugeVec

	// OOV generation metrics
	OOVNodesTotal            *prometheus.CounterVec
	OOVGenerationErrorsTotal *prometheus.CounterVec

	// Reload metrics
	ReloadsTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Cache metrics
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		PluginsResolvedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "morph_plugins_resolved_total",
				Help: "Total number of plugins resolved, by category and origin",
			},
			[]string{"category", "origin"},
		),
		PluginResolveErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "morph_plugin_resolve_errors_total",
				Help: "Total number of plugin resolution failures, by category and kind",
			},
			[]string{"category", "kind"},
		),
		PluginSetupDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "morph_plugin_setup_duration_seconds",
				Help:    "Plugin setup duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"category", "plugin"},
		),
		PluginsActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "morph_plugins_active",
				Help: "Number of plugins in the published chain, by category",
			},
			[]string{"category"},
		),
		OOVNodesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "morph_oov_nodes_total",
				Help: "Total number of OOV nodes produced, by plugin",
			},
			[]string{"plugin"},
		),
		OOVGenerationErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "morph_oov_generation_errors_total",
				Help: "Total number of OOV generation failures, by plugin",
			},
			[]string{"plugin"},
		),
		ReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "morph_reloads_total",
				Help: "Total number of configuration reloads, by result",
			},
			[]string{"result"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "morph_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "morph_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "morph_cache_hits_total",
				Help: "Total number of response cache hits",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "morph_cache_misses_total",
				Help: "Total number of response cache misses",
			},
		),
	}

	registry.MustRegister(
		m.PluginsResolvedTotal,
		m.PluginResolveErrors,
		m.PluginSetupDuration,
		m.PluginsActive,
		m.OOVNodesTotal,
		m.OOVGenerationErrorsTotal,
		m.ReloadsTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)

	return m
}

// RecordResolved records a resolved plugin
func (m *Metrics) RecordResolved(category, origin string, setup time.Duration, plugin string) {
	if m == nil {
		return
	}
	m.PluginsResolvedTotal.WithLabelValues(category, origin).Inc()
	m.PluginSetupDuration.WithLabelValues(category, plugin).Observe(setup.Seconds())
}

// RecordResolveError records a resolution failure; kind is "load" or "setup"
func (m *Metrics) RecordResolveError(category, kind string) {
	if m == nil {
		return
	}
	m.PluginResolveErrors.WithLabelValues(category, kind).Inc()
}

// SetActive sets the number of active plugins of a category
func (m *Metrics) SetActive(category string, n int) {
	if m == nil {
		return
	}
	m.PluginsActive.WithLabelValues(category).Set(float64(n))
}

// RecordOOV records the result of one plugin generation call
func (m *Metrics) RecordOOV(plugin string, nodes int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.OOVGenerationErrorsTotal.WithLabelValues(plugin).Inc()
		return
	}
	m.OOVNodesTotal.WithLabelValues(plugin).Add(float64(nodes))
}

// RecordReload records a reload outcome
func (m *Metrics) RecordReload(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.ReloadsTotal.WithLabelValues(result).Inc()
}

// RecordCache records a response cache lookup
func (m *Metrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.Inc()
	} else {
		m.CacheMissesTotal.Inc()
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler returns the Prometheus scrape handler for a registry
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
