package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the provider runtime.
type Metrics struct {
	// Provider metrics
	InvocationsTotal *prometheus.CounterVec
	InvokeDuration   *prometheus.HistogramVec
	DiscoveriesTotal *prometheus.CounterVec
	ProvidersActive  prometheus.Gauge

	// Change notification metrics
	ChangeEventsTotal *prometheus.CounterVec
	EventsDropped     prometheus.Counter
	Subscribers       prometheus.Gauge

	// Workspace cache metrics
	CacheReloads    prometheus.Counter
	CacheVersion    prometheus.Gauge
	CacheSuppressed prometheus.Counter

	// API metrics
	WSConnections prometheus.Gauge
	Uptime        prometheus.Gauge

	startTime time.Time
}

// NewMetrics creates a metrics collector registered against reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		startTime: time.Now(),

		InvocationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolbar_invocations_total",
				Help: "Total number of action invocations",
			},
			[]string{"provider", "status"},
		),
		InvokeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "toolbar_invoke_duration_seconds",
				Help:    "Action invocation duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"provider"},
		),
		DiscoveriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolbar_discoveries_total",
				Help: "Total number of discovery calls",
			},
			[]string{"provider"},
		),
		ProvidersActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "toolbar_providers_active",
				Help: "Number of registered providers",
			},
		),
		ChangeEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolbar_change_events_total",
				Help: "Total change notifications fanned out",
			},
			[]string{"kind"},
		),
		EventsDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "toolbar_change_events_dropped_total",
				Help: "Change notifications dropped for slow subscribers",
			},
		),
		Subscribers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "toolbar_change_subscribers",
				Help: "Number of active change subscribers",
			},
		),
		CacheReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "toolbar_workspace_cache_reloads_total",
				Help: "Workspace cache rebuilds from durable storage",
			},
		),
		CacheVersion: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "toolbar_workspace_cache_version",
				Help: "Current workspace cache version",
			},
		),
		CacheSuppressed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "toolbar_workspace_cache_suppressed_total",
				Help: "Reloads suppressed because observable state was unchanged",
			},
		),
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "toolbar_ws_connections",
				Help: "Active WebSocket connections",
			},
		),
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "toolbar_uptime_seconds",
				Help: "Daemon uptime in seconds",
			},
		),
	}
}

// UpdateUptime refreshes the uptime gauge.
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// RecordInvocation records one action invocation.
func (m *Metrics) RecordInvocation(provider string, ok bool, duration time.Duration) {
	status := "ok"
	if !ok {
		status = "error"
	}
	m.InvocationsTotal.WithLabelValues(provider, status).Inc()
	m.InvokeDuration.WithLabelValues(provider).Observe(duration.Seconds())
}
