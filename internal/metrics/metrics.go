package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Chat metrics
	ChatRequestsTotal   *prometheus.CounterVec
	ChatDurationSeconds *prometheus.HistogramVec

	// Resolver metrics
	ResolveTotal *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	CacheErrorsTotal *prometheus.CounterVec

	// Singleflight metrics
	SingleflightDedupTotal prometheus.Counter

	// Index metrics
	IndexPOIs         prometheus.Gauge
	IndexReloadsTotal *prometheus.CounterVec
	IndexRejectedPOIs prometheus.Counter
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	return &Metrics{
		ChatRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "place_resolver_chat_requests_total",
				Help: "Total number of chat requests by intent and result kind",
			},
			[]string{"intent", "kind"}, // kind: text, links, fallback
		),

		ChatDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "place_resolver_chat_duration_seconds",
				Help:    "Chat request duration in seconds by intent",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"intent"},
		),

		ResolveTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "place_resolver_resolve_total",
				Help: "Total number of place resolutions by outcome",
			},
			[]string{"outcome"}, // outcome: hit, miss
		),

		CacheHitsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "place_resolver_cache_hits_total",
				Help: "Total number of cache hits by backend",
			},
			[]string{"backend"},
		),

		CacheMissesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "place_resolver_cache_misses_total",
				Help: "Total number of cache misses by backend",
			},
			[]string{"backend"},
		),

		CacheErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "place_resolver_cache_errors_total",
				Help: "Total number of cache backend errors by backend and operation",
			},
			[]string{"backend", "op"}, // op: get, set
		),

		SingleflightDedupTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "place_resolver_singleflight_dedup_total",
				Help: "Total number of chat requests that shared an in-flight answer",
			},
		),

		IndexPOIs: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "place_resolver_index_pois",
				Help: "Number of POIs in the live index snapshot",
			},
		),

		IndexReloadsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "place_resolver_index_reloads_total",
				Help: "Total number of index reloads by status",
			},
			[]string{"status"}, // status: success, error, dry_run
		),

		IndexRejectedPOIs: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "place_resolver_index_rejected_pois_total",
				Help: "Total number of malformed POI records skipped at load",
			},
		),
	}
}

// RecordChat records a handled chat request
func (m *Metrics) RecordChat(intent, kind string, duration float64) {
	m.ChatRequestsTotal.WithLabelValues(intent, kind).Inc()
	m.ChatDurationSeconds.WithLabelValues(intent).Observe(duration)
}

// RecordResolve records a resolver outcome
func (m *Metrics) RecordResolve(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.ResolveTotal.WithLabelValues(outcome).Inc()
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit(backend string) {
	m.CacheHitsTotal.WithLabelValues(backend).Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss(backend string) {
	m.CacheMissesTotal.WithLabelValues(backend).Inc()
}

// RecordCacheError records a cache backend failure
func (m *Metrics) RecordCacheError(backend, op string) {
	m.CacheErrorsTotal.WithLabelValues(backend, op).Inc()
}

// RecordSingleflightDedup records a deduplicated request
func (m *Metrics) RecordSingleflightDedup() {
	m.SingleflightDedupTotal.Inc()
}

// RecordIndexLoad records an index load or reload
func (m *Metrics) RecordIndexLoad(status string, indexed, rejected int) {
	m.IndexReloadsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		m.IndexPOIs.Set(float64(indexed))
	}
	m.IndexRejectedPOIs.Add(float64(rejected))
}
