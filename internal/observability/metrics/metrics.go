package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// NewRegistry builds the process-wide prometheus registry.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// HTTPMetrics instruments the gin server.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics(registry *prometheus.Registry) *HTTPMetrics {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoreline_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scoreline_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	registry.MustRegister(m.requests, m.duration)
	return m
}

func (m *HTTPMetrics) Observe(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// EngineMetrics instruments the allocation engine and leaderboard scorer.
type EngineMetrics struct {
	recomputeRuns      *prometheus.CounterVec
	recomputeDuration  prometheus.Histogram
	unallocatedTargets prometheus.Counter
	snapshots          *prometheus.CounterVec
	snapshotDuration   prometheus.Histogram
}

func NewEngineMetrics(registry *prometheus.Registry) *EngineMetrics {
	m := &EngineMetrics{
		recomputeRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoreline_recompute_runs_total",
			Help: "Allocation recompute runs by outcome.",
		}, []string{"outcome"}),
		recomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scoreline_recompute_duration_seconds",
			Help:    "Allocation recompute latency.",
			Buckets: prometheus.DefBuckets,
		}),
		unallocatedTargets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoreline_unallocated_role_targets_total",
			Help: "Role targets left unallocated because no active member held the role.",
		}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoreline_leaderboard_snapshots_total",
			Help: "Leaderboard snapshot computations by outcome.",
		}, []string{"outcome"}),
		snapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scoreline_snapshot_duration_seconds",
			Help:    "Leaderboard snapshot computation latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	registry.MustRegister(
		m.recomputeRuns,
		m.recomputeDuration,
		m.unallocatedTargets,
		m.snapshots,
		m.snapshotDuration,
	)
	return m
}

func (m *EngineMetrics) ObserveRecompute(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.recomputeRuns.WithLabelValues(outcome).Inc()
	m.recomputeDuration.Observe(elapsed.Seconds())
}

func (m *EngineMetrics) RecordUnallocatedTarget() {
	if m == nil {
		return
	}
	m.unallocatedTargets.Inc()
}

func (m *EngineMetrics) ObserveSnapshot(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.snapshots.WithLabelValues(outcome).Inc()
	m.snapshotDuration.Observe(elapsed.Seconds())
}
