// Package metrics provides Prometheus metrics for the huehunt game service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// deltaBuckets covers applied deltas from the easy base down to the 1.0 floor.
var deltaBuckets = []float64{1, 1.5, 2, 3, 5, 8, 12, 15, 20, 25} //nolint:gochecknoglobals // bucket layout

// levelBuckets covers the level a game ended on.
var levelBuckets = []float64{1, 2, 3, 5, 8, 12, 20, 30, 50, 80} //nolint:gochecknoglobals // bucket layout

// Manager manages all Prometheus metrics for the game service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Game metrics
	gamesStarted     *prometheus.CounterVec
	gamesFinished    *prometheus.CounterVec
	finalLevel       *prometheus.HistogramVec
	roundsGenerated  *prometheus.CounterVec
	appliedDelta     *prometheus.HistogramVec
	clicks           *prometheus.CounterVec
	activeSessions   prometheus.Gauge
	sessionsEvicted  prometheus.Counter
	sessionsRejected prometheus.Counter

	// Result pipeline metrics
	resultsRecorded    prometheus.Counter
	resultsDuplicate   prometheus.Counter
	leaderboardUpdates prometheus.Counter
	scoringErrors      prometheus.Counter
	totalPlayers       prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueue       prometheus.Counter
	queueDequeue       prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Repository metrics
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "huehunt",
		subsystem:        "game",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.gamesStarted = m.counterVec("games_started_total", "Games started by tier", "tier")
	m.gamesFinished = m.counterVec("games_finished_total", "Games finished by tier and end reason", "tier", "reason")
	m.finalLevel = m.histogramVec("final_level", "Level a game ended on", levelBuckets, "tier")
	m.roundsGenerated = m.counterVec("rounds_generated_total", "Rounds generated by tier and perturbed channel", "tier", "channel")
	m.appliedDelta = m.histogramVec("applied_delta", "Applied perturbation per generated round", deltaBuckets, "tier")
	m.clicks = m.counterVec("clicks_total", "Clicks by outcome", "outcome")
	m.activeSessions = m.gauge("active_sessions", "Sessions currently held in memory")
	m.sessionsEvicted = m.counter("sessions_evicted_total", "Sessions dropped after their TTL")
	m.sessionsRejected = m.counter("sessions_rejected_total", "New games refused because the session table is full")

	m.resultsRecorded = m.counter("results_recorded_total", "Finished games applied to the leaderboard")
	m.resultsDuplicate = m.counter("results_duplicate_total", "Finished games dropped as duplicates")
	m.leaderboardUpdates = m.counter("leaderboard_updates_total", "Leaderboard updates that improved a player's best")
	m.scoringErrors = m.counter("scoring_errors_total", "Finished games that failed to score")
	m.totalPlayers = m.gauge("total_players", "Players on the leaderboard")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		m.histogramBuckets, "endpoint", "method", "status_code")

	m.queueSize = m.gauge("queue_size", "Current size of the result queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum capacity of the result queue")
	m.queueEnqueue = m.counter("queue_enqueue_total", "Results enqueued")
	m.queueDequeue = m.counter("queue_dequeue_total", "Results dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Results that could not be enqueued")

	m.workerCount = m.gauge("worker_count", "Number of result workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Time a worker spends on one result", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Errors raised by result workers")

	m.repositoryUpdateLatency = m.histogram("repository_update_latency_milliseconds",
		"Leaderboard update latency", m.histogramBuckets)
	m.repositoryQueryLatency = m.histogram("repository_query_latency_milliseconds",
		"Leaderboard query latency", m.histogramBuckets)

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Allocated heap bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause time", m.histogramBuckets)
}

// Game metrics.

// RecordGameStarted counts a new game on tier.
func RecordGameStarted(tier string) {
	globalManager.gamesStarted.WithLabelValues(tier).Inc()
}

// RecordGameFinished counts a finished game and the level it ended on.
func RecordGameFinished(tier, reason string, level int) {
	globalManager.gamesFinished.WithLabelValues(tier, reason).Inc()
	globalManager.finalLevel.WithLabelValues(tier).Observe(float64(level))
}

// RecordRoundGenerated counts a generated round and its applied delta.
func RecordRoundGenerated(tier, channel string, delta float64) {
	globalManager.roundsGenerated.WithLabelValues(tier, channel).Inc()
	globalManager.appliedDelta.WithLabelValues(tier).Observe(delta)
}

// RecordClick counts a click by outcome ("correct", "wrong", "rejected").
func RecordClick(outcome string) {
	globalManager.clicks.WithLabelValues(outcome).Inc()
}

// UpdateActiveSessions sets the number of held sessions.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// RecordSessionsEvicted adds n evicted sessions.
func RecordSessionsEvicted(n int) {
	globalManager.sessionsEvicted.Add(float64(n))
}

// RecordSessionRejected counts a refused new game.
func RecordSessionRejected() {
	globalManager.sessionsRejected.Inc()
}

// Result pipeline metrics.

// RecordResultRecorded counts a result applied to the leaderboard.
func RecordResultRecorded() {
	globalManager.resultsRecorded.Inc()
}

// RecordResultDuplicate counts a result dropped by dedupe.
func RecordResultDuplicate() {
	globalManager.resultsDuplicate.Inc()
}

// RecordLeaderboardUpdate counts an improved personal best.
func RecordLeaderboardUpdate() {
	globalManager.leaderboardUpdates.Inc()
}

// RecordScoringError counts a result that failed to score.
func RecordScoringError() {
	globalManager.scoringErrors.Inc()
}

// UpdateTotalPlayers sets the number of ranked players.
func UpdateTotalPlayers(count int) {
	globalManager.totalPlayers.Set(float64(count))
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue metrics.

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
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Worker metrics.

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Repository metrics.

// RecordRepositoryUpdateLatency records repository update operation latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records repository query operation latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System metrics.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
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
