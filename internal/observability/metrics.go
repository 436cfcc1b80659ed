package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the duplicate review service.
// Metrics are organized by subsystem: detections, resolutions, backend
// requests, and the statistics cache. All counters and histograms are
// registered via promauto for automatic registration with the default
// Prometheus registry.
type Metrics struct {
	// DetectionsStarted counts detection runs initiated.
	DetectionsStarted prometheus.Counter

	// DetectionsCompleted counts detection runs that finished successfully.
	DetectionsCompleted prometheus.Counter

	// DetectionsFailed counts detection runs that ended in failure.
	DetectionsFailed prometheus.Counter

	// DetectionDuration observes detection round-trip duration in seconds.
	DetectionDuration prometheus.Histogram

	// GroupsPerDetection observes the distribution of duplicate groups
	// found per detection run.
	GroupsPerDetection prometheus.Histogram

	// ResolutionsTotal counts single-pair resolutions, labeled by action.
	ResolutionsTotal *prometheus.CounterVec

	// ResolutionsFailed counts single-pair resolutions that failed.
	ResolutionsFailed prometheus.Counter

	// ResolveAllRuns counts bulk resolve operations completed.
	ResolveAllRuns prometheus.Counter

	// DuplicatesRemoved counts duplicates removed by bulk resolves.
	DuplicatesRemoved prometheus.Counter

	// BackendRequestsTotal counts backend API requests, labeled by
	// operation and outcome.
	BackendRequestsTotal *prometheus.CounterVec

	// BackendRequestDuration observes backend request duration in seconds,
	// labeled by operation.
	BackendRequestDuration *prometheus.HistogramVec

	// StatsCacheHits counts statistics cache hits.
	StatsCacheHits prometheus.Counter

	// StatsCacheMisses counts statistics cache misses.
	StatsCacheMisses prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		DetectionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_started_total",
			Help:      "Total number of duplicate detection runs started",
		}),
		DetectionsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_completed_total",
			Help:      "Total number of duplicate detection runs completed successfully",
		}),
		DetectionsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_failed_total",
			Help:      "Total number of duplicate detection runs that failed",
		}),
		DetectionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detection_duration_seconds",
			Help:      "Duplicate detection round-trip duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		GroupsPerDetection: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "groups_per_detection",
			Help:      "Number of duplicate groups found per detection run",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
		ResolutionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Total number of single-pair resolutions by action",
		}, []string{"action"}),
		ResolutionsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_failed_total",
			Help:      "Total number of single-pair resolutions that failed",
		}),
		ResolveAllRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_all_runs_total",
			Help:      "Total number of bulk resolve operations completed",
		}),
		DuplicatesRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_removed_total",
			Help:      "Total number of duplicate articles removed by bulk resolves",
		}),
		BackendRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Total number of backend API requests by operation and outcome",
		}, []string{"operation", "outcome"}),
		BackendRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Backend API request duration in seconds by operation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		StatsCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_cache_hits_total",
			Help:      "Total number of statistics cache hits",
		}),
		StatsCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_cache_misses_total",
			Help:      "Total number of statistics cache misses",
		}),
	}
}

// RecordDetectionStarted increments the detection started counter.
func (m *Metrics) RecordDetectionStarted() {
	m.DetectionsStarted.Inc()
}

// RecordDetectionCompleted records a successful detection run.
func (m *Metrics) RecordDetectionCompleted(groupsFound int, durationSeconds float64) {
	m.DetectionsCompleted.Inc()
	m.DetectionDuration.Observe(durationSeconds)
	m.GroupsPerDetection.Observe(float64(groupsFound))
}

// RecordDetectionFailed records a failed detection run.
func (m *Metrics) RecordDetectionFailed(durationSeconds float64) {
	m.DetectionsFailed.Inc()
	m.DetectionDuration.Observe(durationSeconds)
}

// RecordResolution records a successful single-pair resolution.
func (m *Metrics) RecordResolution(action string) {
	m.ResolutionsTotal.WithLabelValues(action).Inc()
}

// RecordResolutionFailed records a failed single-pair resolution.
func (m *Metrics) RecordResolutionFailed() {
	m.ResolutionsFailed.Inc()
}

// RecordResolveAll records a completed bulk resolve.
func (m *Metrics) RecordResolveAll(duplicatesRemoved int) {
	m.ResolveAllRuns.Inc()
	m.DuplicatesRemoved.Add(float64(duplicatesRemoved))
}

// RecordBackendRequest records one backend API request.
func (m *Metrics) RecordBackendRequest(operation string, success bool, durationSeconds float64) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	m.BackendRequestsTotal.WithLabelValues(operation, outcome).Inc()
	m.BackendRequestDuration.WithLabelValues(operation).Observe(durationSeconds)
}

// RecordStatsCacheHit increments the cache hit counter.
func (m *Metrics) RecordStatsCacheHit() {
	m.StatsCacheHits.Inc()
}

// RecordStatsCacheMiss increments the cache miss counter.
func (m *Metrics) RecordStatsCacheMiss() {
	m.StatsCacheMisses.Inc()
}
