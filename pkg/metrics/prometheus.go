// Package metrics provides Prometheus metrics for the ergowatch posture service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cycle outcomes recorded by RecordCycle.
const (
	OutcomeEvaluated  = "evaluated"
	OutcomeNoFrame    = "no_frame"
	OutcomeNoPerson   = "no_person"
	OutcomeDegenerate = "degenerate"
)

// Report results recorded by RecordReport.
const (
	ReportDelivered = "delivered"
	ReportFailed    = "failed"
)

// scoreBuckets covers every composite score (0..8).
var scoreBuckets = []float64{0, 1, 2, 3, 4, 5, 6, 7, 8} //nolint:gochecknoglobals // fixed bucket layout

// Manager manages all Prometheus metrics for the posture service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Pipeline
	cycles            *prometheus.CounterVec
	evaluationLatency prometheus.Histogram
	score             prometheus.Histogram
	category          prometheus.Gauge
	segmentAngle      *prometheus.GaugeVec
	segmentCode       *prometheus.GaugeVec
	captureIndex      prometheus.Gauge
	recorderErrors    prometheus.Counter

	// Reporting and the latest-snapshot cell
	reports          *prometheus.CounterVec
	reportLatency    prometheus.Histogram
	snapshotUpdates  prometheus.Counter
	snapshotLastUnix prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ergowatch",
		subsystem:        "posture",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every series
	auto := promauto.With(m.registry)

	m.cycles = auto.NewCounterVec(m.counterOpts("cycles_total", "Sampling cycles by outcome"), []string{"outcome"})
	m.evaluationLatency = auto.NewHistogram(m.histogramOpts("evaluation_latency_milliseconds",
		"Time from capture to classified snapshot in milliseconds", m.histogramBuckets))
	m.score = auto.NewHistogram(m.histogramOpts("score", "Composite posture score (sum of segment codes)", scoreBuckets))
	m.category = auto.NewGauge(m.gaugeOpts("category", "Risk category of the latest snapshot (1 best, 4 worst)"))
	m.segmentAngle = auto.NewGaugeVec(m.gaugeOpts("segment_angle_degrees", "Latest angle per body segment"), []string{"segment"})
	m.segmentCode = auto.NewGaugeVec(m.gaugeOpts("segment_code", "Latest severity code per body segment"), []string{"segment"})
	m.captureIndex = auto.NewGauge(m.gaugeOpts("capture_index", "Current capture file slot"))
	m.recorderErrors = auto.NewCounter(m.counterOpts("recorder_errors_total", "Failed history or capture writes"))

	m.reports = auto.NewCounterVec(m.counterOpts("reports_total", "Dashboard reports by result"), []string{"result"})
	m.reportLatency = auto.NewHistogram(m.histogramOpts("report_latency_milliseconds",
		"Dashboard report round trip in milliseconds", m.histogramBuckets))
	m.snapshotUpdates = auto.NewCounter(m.counterOpts("snapshot_updates_total", "Replacements of the latest snapshot"))
	m.snapshotLastUnix = auto.NewGauge(m.gaugeOpts("snapshot_last_unix", "Unix time of the last snapshot replacement"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.histogramBuckets), []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total",
		"Errors by component and type"), []string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total",
		"Errors by type and severity"), []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total",
		"HTTP errors by endpoint, method and type"), []string{"endpoint", "method", "error_type"})
	m.errorLatency = auto.NewHistogramVec(m.histogramOpts("error_latency_milliseconds",
		"Latency of operations that ended in an error", m.histogramBuckets), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds",
		"Average GC pause in milliseconds", m.histogramBuckets))
}

// Pipeline Metrics Functions.

// RecordCycle counts one sampling cycle with its outcome.
func RecordCycle(outcome string) {
	globalManager.cycles.WithLabelValues(outcome).Inc()
}

// RecordEvaluationLatency records the capture-to-snapshot latency.
func RecordEvaluationLatency(latencyMs float64) {
	globalManager.evaluationLatency.Observe(latencyMs)
}

// RecordSnapshot publishes the composite and per-segment values of a snapshot.
func RecordSnapshot(score, category int, angles map[string]float64, codes map[string]int) {
	globalManager.score.Observe(float64(score))
	globalManager.category.Set(float64(category))
	for segment, angle := range angles {
		globalManager.segmentAngle.WithLabelValues(segment).Set(angle)
	}
	for segment, code := range codes {
		globalManager.segmentCode.WithLabelValues(segment).Set(float64(code))
	}
}

// UpdateCaptureIndex sets the current capture slot.
func UpdateCaptureIndex(index int) {
	globalManager.captureIndex.Set(float64(index))
}

// RecordRecorderError counts a failed history or capture write.
func RecordRecorderError() {
	globalManager.recorderErrors.Inc()
}

// Reporting Metrics Functions.

// RecordReport counts a dashboard report attempt and its latency.
func RecordReport(result string, latencyMs float64) {
	globalManager.reports.WithLabelValues(result).Inc()
	globalManager.reportLatency.Observe(latencyMs)
}

// RecordSnapshotUpdate counts a replacement of the latest snapshot.
func RecordSnapshotUpdate(unix int64) {
	globalManager.snapshotUpdates.Inc()
	globalManager.snapshotLastUnix.Set(float64(unix))
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
