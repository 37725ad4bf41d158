// Package metrics provides Prometheus metrics for the scribe transcript service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus metric of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Pipeline outcomes
	transcriptsProcessed prometheus.Counter
	segmentationFallback prometheus.Counter
	topicsProcessed      prometheus.Counter
	topicsMatched        prometheus.Counter
	topicsUnmatched      prometheus.Counter
	summariesSkipped     prometheus.Counter
	commentsPosted       prometheus.Counter
	recordsPersisted     prometheus.Counter

	// Collaborator failures
	retrievalErrors     prometheus.Counter
	summarizationErrors prometheus.Counter
	persistenceErrors   prometheus.Counter

	// Matching
	candidatesRetrieved prometheus.Histogram
	batchScoringLatency prometheus.Histogram
	matchLatency        prometheus.Histogram

	// Deliveries and queue
	deliveriesDuplicate prometheus.Counter
	queueSize           prometheus.Gauge
	queueCapacity       prometheus.Gauge
	queueUtilization    prometheus.Gauge
	queueEnqueued       prometheus.Counter
	queueDequeued       prometheus.Counter
	queueEnqueueErrors  prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scribe",
		subsystem:        "transcripts",
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
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	m.transcriptsProcessed = m.counter("transcripts_processed_total", "Transcripts processed to completion")
	m.segmentationFallback = m.counter("segmentation_fallback_total", "Transcripts processed as a single topic after segmentation failed")
	m.topicsProcessed = m.counter("topics_processed_total", "Topics run through the matcher")
	m.topicsMatched = m.counter("topics_matched_total", "Topics matched to a tracked item")
	m.topicsUnmatched = m.counter("topics_unmatched_total", "Topics with no candidate item")
	m.summariesSkipped = m.counter("summaries_skipped_total", "Matched topics with nothing new to report")
	m.commentsPosted = m.counter("comments_posted_total", "Update comments posted to the tracker")
	m.recordsPersisted = m.counter("records_persisted_total", "Update records stored")

	m.retrievalErrors = m.counter("retrieval_errors_total", "Failed candidate searches or scoring passes")
	m.summarizationErrors = m.counter("summarization_errors_total", "Failed summarization calls")
	m.persistenceErrors = m.counter("persistence_errors_total", "Failed update record inserts")

	m.candidatesRetrieved = m.histogram("candidates_retrieved", "Candidates returned per topic search",
		[]float64{0, 1, 5, 10, 20, 30, 40, 50})
	m.batchScoringLatency = m.histogram("batch_scoring_latency_milliseconds", "Time to score one candidate batch", m.histogramBuckets)
	m.matchLatency = m.histogram("match_latency_milliseconds", "Time to retrieve and rank candidates for a topic", m.histogramBuckets)

	m.deliveriesDuplicate = m.counter("deliveries_duplicate_total", "Transcript deliveries ignored as re-deliveries")
	m.queueSize = m.gauge("queue_size", "Transcript jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum transcript jobs the queue holds")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Transcript jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Transcript jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Transcript jobs rejected by the queue")

	m.workerCount = m.gauge("worker_count", "Transcript workers running")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time to process one transcript job",
		[]float64{100, 500, 1000, 5000, 10000, 30000, 60000, 120000, 300000})
	m.workerErrors = m.counter("worker_errors_total", "Transcript jobs that ended in error")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorsByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by HTTP endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause time",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordTranscriptProcessed counts a transcript processed to completion.
func RecordTranscriptProcessed() { globalManager.transcriptsProcessed.Inc() }

// RecordSegmentationFallback counts a single-topic fallback.
func RecordSegmentationFallback() { globalManager.segmentationFallback.Inc() }

// RecordTopicProcessed counts a topic entering the matcher.
func RecordTopicProcessed() { globalManager.topicsProcessed.Inc() }

// RecordTopicMatched counts a matched topic.
func RecordTopicMatched() { globalManager.topicsMatched.Inc() }

// RecordTopicUnmatched counts a topic without candidates.
func RecordTopicUnmatched() { globalManager.topicsUnmatched.Inc() }

// RecordSummarySkipped counts a matched topic with nothing to report.
func RecordSummarySkipped() { globalManager.summariesSkipped.Inc() }

// RecordCommentPosted counts a posted comment.
func RecordCommentPosted() { globalManager.commentsPosted.Inc() }

// RecordRecordPersisted counts a stored update record.
func RecordRecordPersisted() { globalManager.recordsPersisted.Inc() }

// RecordRetrievalError counts a failed retrieval or scoring pass.
func RecordRetrievalError() { globalManager.retrievalErrors.Inc() }

// RecordSummarizationError counts a failed summarization call.
func RecordSummarizationError() { globalManager.summarizationErrors.Inc() }

// RecordPersistenceError counts a failed insert.
func RecordPersistenceError() { globalManager.persistenceErrors.Inc() }

// RecordCandidatesRetrieved observes the candidate pool size for a topic.
func RecordCandidatesRetrieved(n int) { globalManager.candidatesRetrieved.Observe(float64(n)) }

// RecordBatchScoringLatency records batch scoring latency in milliseconds.
func RecordBatchScoringLatency(latencyMs float64) {
	globalManager.batchScoringLatency.Observe(latencyMs)
}

// RecordMatchLatency records matching latency in milliseconds.
func RecordMatchLatency(latencyMs float64) { globalManager.matchLatency.Observe(latencyMs) }

// RecordDeliveryDuplicate counts an ignored re-delivery.
func RecordDeliveryDuplicate() { globalManager.deliveriesDuplicate.Inc() }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue counts an enqueued job.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue counts a dequeued job.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts a rejected job.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records job processing latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed job.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method and type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
