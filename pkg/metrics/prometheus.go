// Package metrics provides Prometheus metrics for the stagerank service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Latency buckets in milliseconds; backend calls are network bound.
var defaultLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Leaderboard
	leaderboardBuilds   *prometheus.CounterVec
	leaderboardDuration *prometheus.HistogramVec
	performersTotal     *prometheus.GaugeVec
	ingestRecords       *prometheus.CounterVec
	ingestRejected      *prometheus.CounterVec
	levelReloads        *prometheus.CounterVec

	// Backend
	backendRequests *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec

	// Submissions
	submissions       *prometheus.CounterVec
	submissionLatency prometheus.Histogram
	pointsAwarded     prometheus.Counter

	// Sessions
	sessionEvents *prometheus.CounterVec

	// Snapshots
	snapshotWrites       prometheus.Counter
	snapshotQueryLatency prometheus.Histogram

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorRateByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "stagerank",
		subsystem:        "",
		histogramBuckets: defaultLatencyBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.leaderboardBuilds = m.counterVec("leaderboard_builds_total", "Leaderboards built, by scope", "scope")
	m.leaderboardDuration = m.histogramVec("leaderboard_build_duration_milliseconds", "Time to fetch, ingest and rank a leaderboard", "scope")
	m.performersTotal = m.gaugeVec("performers", "Performers in the last built leaderboard, by scope", "scope")
	m.ingestRecords = m.counterVec("ingest_records_total", "Raw performer records accepted by ingestion", "scope")
	m.ingestRejected = m.counterVec("ingest_rejected_total", "Raw performer records rejected by ingestion", "scope", "field")
	m.levelReloads = m.counterVec("scout_level_reloads_total", "Scout level table reloads by outcome", "outcome")

	m.backendRequests = m.counterVec("backend_requests_total", "Backend calls by action and outcome", "action", "outcome")
	m.backendLatency = m.histogramVec("backend_request_duration_milliseconds", "Backend call latency by action", "action")

	m.submissions = m.counterVec("submissions_total", "Rating submissions by outcome", "outcome")
	m.submissionLatency = m.histogram("submission_latency_milliseconds", "Time from acceptance to backend confirmation")
	m.pointsAwarded = m.counter("scout_points_awarded_total", "Scout points reported by the backend for submissions")

	m.sessionEvents = m.counterVec("session_events_total", "Session lifecycle events", "event")

	m.snapshotWrites = m.counter("snapshot_writes_total", "Aggregate snapshots persisted")
	m.snapshotQueryLatency = m.histogram("snapshot_query_latency_milliseconds", "Snapshot baseline lookup latency")

	m.queueSize = m.gauge("queue_size", "Current number of queued submissions")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Submissions enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Submissions dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Enqueue failures")

	m.workerCount = m.gauge("worker_count", "Configured submission workers")
	m.workerActiveCount = m.gauge("worker_active", "Workers currently forwarding a submission")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Per-submission worker latency")
	m.workerErrorRate = m.counter("worker_errors_total", "Submissions the backend rejected or failed")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

// Leaderboard.

// RecordLeaderboardBuild counts a built leaderboard and its duration.
func RecordLeaderboardBuild(scope string, durationMs float64, performers int) {
	globalManager.leaderboardBuilds.WithLabelValues(scope).Inc()
	globalManager.leaderboardDuration.WithLabelValues(scope).Observe(durationMs)
	globalManager.performersTotal.WithLabelValues(scope).Set(float64(performers))
}

// RecordIngest counts accepted records for scope.
func RecordIngest(scope string, accepted int) {
	globalManager.ingestRecords.WithLabelValues(scope).Add(float64(accepted))
}

// RecordIngestRejected counts one rejected record.
func RecordIngestRejected(scope, field string) {
	globalManager.ingestRejected.WithLabelValues(scope, field).Inc()
}

// RecordLevelReload records a scout level table reload ("ok", "invalid", "error").
func RecordLevelReload(outcome string) {
	globalManager.levelReloads.WithLabelValues(outcome).Inc()
}

// Backend.

// RecordBackendRequest records one backend call.
func RecordBackendRequest(action, outcome string, durationMs float64) {
	globalManager.backendRequests.WithLabelValues(action, outcome).Inc()
	globalManager.backendLatency.WithLabelValues(action).Observe(durationMs)
}

// Submissions.

// RecordSubmission counts a submission outcome
// ("queued", "duplicate", "invalid", "rejected", "accepted", "failed").
func RecordSubmission(outcome string) {
	globalManager.submissions.WithLabelValues(outcome).Inc()
}

// RecordSubmissionLatency records time from acceptance to completion.
func RecordSubmissionLatency(latencyMs float64) {
	globalManager.submissionLatency.Observe(latencyMs)
}

// RecordPointsAwarded adds scout points reported by the backend.
func RecordPointsAwarded(points int) {
	if points > 0 {
		globalManager.pointsAwarded.Add(float64(points))
	}
}

// Sessions.

// RecordSessionEvent counts "begin", "resume", "expired", "update" or "clear".
func RecordSessionEvent(event string) {
	globalManager.sessionEvents.WithLabelValues(event).Inc()
}

// Snapshots.

// RecordSnapshotWrites counts persisted snapshots.
func RecordSnapshotWrites(n int) {
	globalManager.snapshotWrites.Add(float64(n))
}

// RecordSnapshotQueryLatency records a baseline lookup.
func RecordSnapshotQueryLatency(latencyMs float64) {
	globalManager.snapshotQueryLatency.Observe(latencyMs)
}

// Queue.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Workers.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// AddWorkerActive moves the active worker gauge by delta.
func AddWorkerActive(delta int) {
	globalManager.workerActiveCount.Add(float64(delta))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
