// Package metrics provides Prometheus metrics for the triple crown pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default stage duration buckets, in seconds. Runs are small batch jobs.
var defaultStageBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30} //nolint:gochecknoglobals // read-only defaults

// Manager owns every collector the pipeline reports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Row flow per source.
	rowsRead       *prometheus.CounterVec
	rowsNormalized *prometheus.CounterVec
	rowsRejected   *prometheus.CounterVec

	// Linkage quality.
	keyCollisions   *prometheus.GaugeVec
	matchedRecords  prometheus.Gauge
	supersetRecords prometheus.Gauge
	fanoutKeys      prometheus.Gauge

	// Run timing and outcome.
	stageDuration *prometheus.HistogramVec
	runsTotal     *prometheus.CounterVec
	lastRunUnix   prometheus.Gauge

	// Source collaborators.
	sourceFetches *prometheus.CounterVec

	// HTTP serving.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager. Collectors are registered on the
// configured registry, the default registerer when none is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "triplecrown",
		subsystem:        "pipeline",
		histogramBuckets: defaultStageBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat collector declarations
	auto := promauto.With(m.registry)

	m.rowsRead = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rows_read_total",
		Help:        "Raw rows read per source",
		ConstLabels: m.constLabels,
	}, []string{"source"})

	m.rowsNormalized = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rows_normalized_total",
		Help:        "Rows successfully normalized per source",
		ConstLabels: m.constLabels,
	}, []string{"source"})

	m.rowsRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rows_rejected_total",
		Help:        "Rows skipped under the skip policy, per source and reason",
		ConstLabels: m.constLabels,
	}, []string{"source", "reason"})

	m.keyCollisions = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "key_collisions",
		Help:        "Blocking keys carried by more than one row within a source",
		ConstLabels: m.constLabels,
	}, []string{"source"})

	m.matchedRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "matched_records",
		Help:        "Records in the inner join of the last run",
		ConstLabels: m.constLabels,
	})

	m.supersetRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "superset_records",
		Help:        "Records in the outer join of the last run",
		ConstLabels: m.constLabels,
	})

	m.fanoutKeys = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fanout_keys",
		Help:        "Blocking keys that produced more than one inner-join record",
		ConstLabels: m.constLabels,
	})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_duration_seconds",
		Help:        "Wall time per pipeline stage",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"stage"})

	m.runsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "runs_total",
		Help:        "Pipeline runs by outcome",
		ConstLabels: m.constLabels,
	}, []string{"status"})

	m.lastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_run_timestamp_seconds",
		Help:        "Unix time of the last completed run",
		ConstLabels: m.constLabels,
	})

	m.sourceFetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "source_fetches_total",
		Help:        "Remote source loads by origin (cache or http)",
		ConstLabels: m.constLabels,
	}, []string{"source", "origin"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "requests_total",
		Help:        "HTTP requests by endpoint, method and status",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "errors_total",
		Help:        "HTTP error responses by endpoint, method and error type",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "error_type"})
}

// RecordRowsRead adds n raw rows read for source.
func (m *Manager) RecordRowsRead(source string, n int) {
	m.rowsRead.WithLabelValues(source).Add(float64(n))
}

// RecordRowsNormalized adds n normalized rows for source.
func (m *Manager) RecordRowsNormalized(source string, n int) {
	m.rowsNormalized.WithLabelValues(source).Add(float64(n))
}

// RecordRowRejected counts one skipped row.
func (m *Manager) RecordRowRejected(source, reason string) {
	m.rowsRejected.WithLabelValues(source, reason).Inc()
}

// SetKeyCollisions reports colliding keys for source.
func (m *Manager) SetKeyCollisions(source string, n int) {
	m.keyCollisions.WithLabelValues(source).Set(float64(n))
}

// SetLinkage reports the join cardinalities of a run.
func (m *Manager) SetLinkage(matched, superset, fanout int) {
	m.matchedRecords.Set(float64(matched))
	m.supersetRecords.Set(float64(superset))
	m.fanoutKeys.Set(float64(fanout))
}

// ObserveStage records the duration of a stage in seconds.
func (m *Manager) ObserveStage(stage string, seconds float64) {
	m.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordRun counts a run with status "ok" or "failed".
func (m *Manager) RecordRun(status string, unix int64) {
	m.runsTotal.WithLabelValues(status).Inc()
	if status == StatusOK {
		m.lastRunUnix.Set(float64(unix))
	}
}

// RecordSourceFetch counts a remote source load.
func (m *Manager) RecordSourceFetch(source, origin string) {
	m.sourceFetches.WithLabelValues(source, origin).Inc()
}

// RecordHTTPRequest counts one HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes HTTP latency in milliseconds.
func (m *Manager) RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError counts one error response.
func (m *Manager) RecordHTTPError(endpoint, method, errorType string) {
	m.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// Run outcomes.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Package-level helpers against the global manager.

func RecordRowsRead(source string, n int)       { globalManager.RecordRowsRead(source, n) }
func RecordRowsNormalized(source string, n int) { globalManager.RecordRowsNormalized(source, n) }
func RecordRowRejected(source, reason string)   { globalManager.RecordRowRejected(source, reason) }
func SetKeyCollisions(source string, n int)     { globalManager.SetKeyCollisions(source, n) }
func SetLinkage(matched, superset, fanout int)  { globalManager.SetLinkage(matched, superset, fanout) }
func ObserveStage(stage string, seconds float64) {
	globalManager.ObserveStage(stage, seconds)
}
func RecordRun(status string, unix int64)       { globalManager.RecordRun(status, unix) }
func RecordSourceFetch(source, origin string)   { globalManager.RecordSourceFetch(source, origin) }
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode)
}
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequestDuration(endpoint, method, statusCode, durationMs)
}
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.RecordHTTPError(endpoint, method, errorType)
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
