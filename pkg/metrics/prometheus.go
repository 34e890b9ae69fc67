// Package metrics provides Prometheus metrics for the fairmeet service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Latency buckets in milliseconds. External calls are bounded by the
// search timeout (5s) and the run timeout (15s).
var latencyBucketsMs = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 15000}

// Manager manages all Prometheus metrics for the fairmeet service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Engine
	engineRuns        *prometheus.CounterVec
	engineLatency     prometheus.Histogram
	venuesScored      prometheus.Counter
	venuesDropped     prometheus.Counter
	degradedResults   *prometheus.CounterVec
	fairnessScore     prometheus.Histogram
	candidatesPerRun  prometheus.Histogram
	partiesPerRequest prometheus.Histogram

	// External capabilities
	venueSearchLatency    prometheus.Histogram
	venueSearchResults    *prometheus.CounterVec
	travelEstimateLatency prometheus.Histogram
	travelEstimateErrors  *prometheus.CounterVec

	// Result cache
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheEvictions prometheus.Counter
	cacheSize      prometheus.Gauge

	// Quota
	quotaUsage      prometheus.Gauge
	quotaLimit      prometheus.Gauge
	quotaRejections *prometheus.CounterVec

	// Sessions
	activeSessions prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Estimate queue
	queueCapacity          prometheus.Gauge
	queueSize              prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Estimate workers
	workerCount             prometheus.Gauge
	workerBusyCount         prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

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
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "fairmeet",
		subsystem:        "engine",
		histogramBuckets: latencyBucketsMs,
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
	if m.metricPrefix != "" {
		return m.metricPrefix + "_" + n
	}
	return n
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels, Buckets: buckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	b := m.histogramBuckets

	m.engineRuns = m.counterVec("runs_total", "Engine runs by terminal state", "state")
	m.engineLatency = m.histogram("run_latency_ms", "End-to-end engine run latency in milliseconds", b)
	m.venuesScored = m.counter("venues_scored_total", "Candidate venues that received a fairness score")
	m.venuesDropped = m.counter("venues_dropped_total", "Candidate venues dropped because a travel estimate failed")
	m.degradedResults = m.counterVec("degraded_results_total", "Degraded placeholder results by sentinel place id", "place_id")
	m.fairnessScore = m.histogram("fairness_score", "Fairness score of the top ranked venue (minutes)",
		[]float64{1, 2, 5, 10, 15, 20, 30, 45, 60, 90, 120})
	m.candidatesPerRun = m.histogram("candidates_per_run", "Candidate venues returned by the venue finder",
		[]float64{0, 1, 2, 5, 10, 20, 50})
	m.partiesPerRequest = m.histogram("parties_per_request", "Eligible parties per engine run",
		[]float64{2, 3, 4, 5, 6, 8, 10, 15, 20})

	m.venueSearchLatency = m.histogram("venue_search_latency_ms", "Venue finder latency in milliseconds", b)
	m.venueSearchResults = m.counterVec("venue_search_total", "Venue finder calls by outcome", "outcome")
	m.travelEstimateLatency = m.histogram("travel_estimate_latency_ms", "Travel estimator latency in milliseconds", b)
	m.travelEstimateErrors = m.counterVec("travel_estimate_errors_total", "Travel estimate failures by provider", "provider")

	m.cacheHits = m.counter("cache_hits_total", "Result cache hits")
	m.cacheMisses = m.counter("cache_misses_total", "Result cache misses")
	m.cacheEvictions = m.counter("cache_evictions_total", "Result cache evictions (capacity or TTL)")
	m.cacheSize = m.gauge("cache_entries", "Current number of result cache entries")

	m.quotaUsage = m.gauge("quota_calls_today", "Venue searches consumed today")
	m.quotaLimit = m.gauge("quota_daily_limit", "Configured daily venue search budget")
	m.quotaRejections = m.counterVec("quota_rejections_total", "Requests rejected by the quota guard", "reason")

	m.activeSessions = m.gauge("sessions_active", "Sessions currently held in memory")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_ms", "HTTP request duration in milliseconds", b,
		"endpoint", "method", "status_code")

	m.queueCapacity = m.gauge("queue_capacity", "Maximum estimate queue capacity")
	m.queueSize = m.gauge("queue_size", "Current number of queued estimate jobs")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Estimate queue utilization (0-1)")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Estimate jobs enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Estimate jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Estimate jobs rejected by the queue")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_ms", "Enqueue latency in milliseconds", b)

	m.workerCount = m.gauge("workers", "Estimate workers in the pool")
	m.workerBusyCount = m.gauge("workers_busy", "Estimate workers currently running a job")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_ms", "Worker job latency in milliseconds", b)
	m.workerErrors = m.counter("worker_errors_total", "Estimate jobs that ended in an error")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by HTTP endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_ms", "Latency of operations that failed", b, "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_ms", "Average GC pause in milliseconds",
		[]float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50})
}

// Engine metrics.

// RecordEngineRun increments the run counter for a terminal state.
func RecordEngineRun(state string) {
	globalManager.engineRuns.WithLabelValues(state).Inc()
}

// RecordEngineLatency observes an engine run latency.
func RecordEngineLatency(latencyMs float64) {
	globalManager.engineLatency.Observe(latencyMs)
}

// RecordVenueScored increments the scored venue counter.
func RecordVenueScored() {
	globalManager.venuesScored.Inc()
}

// RecordVenueDropped increments the dropped venue counter.
func RecordVenueDropped() {
	globalManager.venuesDropped.Inc()
}

// RecordDegradedResult counts a degraded placeholder by sentinel id.
func RecordDegradedResult(placeID string) {
	globalManager.degradedResults.WithLabelValues(placeID).Inc()
}

// RecordTopFairnessScore observes the score of the best venue of a run.
func RecordTopFairnessScore(score float64) {
	globalManager.fairnessScore.Observe(score)
}

// RecordCandidates observes the candidate count of a run.
func RecordCandidates(n int) {
	globalManager.candidatesPerRun.Observe(float64(n))
}

// RecordParties observes the eligible party count of a run.
func RecordParties(n int) {
	globalManager.partiesPerRequest.Observe(float64(n))
}

// External capability metrics.

// RecordVenueSearch observes a finder call latency and outcome.
func RecordVenueSearch(outcome string, latencyMs float64) {
	globalManager.venueSearchResults.WithLabelValues(outcome).Inc()
	globalManager.venueSearchLatency.Observe(latencyMs)
}

// RecordTravelEstimateLatency observes an estimator call latency.
func RecordTravelEstimateLatency(latencyMs float64) {
	globalManager.travelEstimateLatency.Observe(latencyMs)
}

// RecordTravelEstimateError counts a failed estimate for a provider.
func RecordTravelEstimateError(provider string) {
	globalManager.travelEstimateErrors.WithLabelValues(provider).Inc()
}

// Cache metrics.

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() {
	globalManager.cacheMisses.Inc()
}

// RecordCacheEviction increments the cache eviction counter.
func RecordCacheEviction() {
	globalManager.cacheEvictions.Inc()
}

// UpdateCacheSize sets the number of cache entries.
func UpdateCacheSize(n int) {
	globalManager.cacheSize.Set(float64(n))
}

// Quota metrics.

// UpdateQuotaUsage sets today's consumed searches and the configured limit.
func UpdateQuotaUsage(used, limit int) {
	globalManager.quotaUsage.Set(float64(used))
	globalManager.quotaLimit.Set(float64(limit))
}

// RecordQuotaRejection counts a request refused by the quota guard.
func RecordQuotaRejection(reason string) {
	globalManager.quotaRejections.WithLabelValues(reason).Inc()
}

// UpdateActiveSessions sets the number of in-memory sessions.
func UpdateActiveSessions(n int) {
	globalManager.activeSessions.Set(float64(n))
}

// HTTP metrics.

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue metrics.

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
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

// RecordQueueProcessingLatency records queue processing latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Worker metrics.

// UpdateWorkerCount sets the number of workers in the pool.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// IncWorkerBusy and DecWorkerBusy track workers running a job.
func IncWorkerBusy() { globalManager.workerBusyCount.Inc() }
func DecWorkerBusy() { globalManager.workerBusyCount.Dec() }

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Error metrics.

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

// System metrics.

// UpdateSystemMemoryUsage sets the heap allocation in bytes.
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
