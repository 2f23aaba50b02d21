package shared

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// ServiceMetrics collects Prometheus metrics for upstream providers, storage and the refresh job.
// A nil *ServiceMetrics is valid and records nothing.
type ServiceMetrics struct {
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	storageOps       *prometheus.CounterVec
	refreshRuns      *prometheus.CounterVec
	refreshLastCount prometheus.Gauge
}

// NewServiceMetrics creates the collectors and registers them with reg
func NewServiceMetrics(reg prometheus.Registerer) *ServiceMetrics {
	m := &ServiceMetrics{
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ipodash_upstream_requests_total",
			Help: "Requests sent to upstream data providers.",
		}, []string{"provider", "operation", "outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ipodash_upstream_request_duration_seconds",
			Help:    "Latency of upstream provider requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "operation"}),
		storageOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ipodash_storage_operations_total",
			Help: "Persistence operations by backend.",
		}, []string{"backend", "operation", "outcome"}),
		refreshRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ipodash_refresh_runs_total",
			Help: "Runs of the scheduled IPO calendar refresh.",
		}, []string{"outcome"}),
		refreshLastCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ipodash_refresh_last_count",
			Help: "Number of listings returned by the last successful refresh.",
		}),
	}

	reg.MustRegister(
		m.upstreamRequests,
		m.upstreamLatency,
		m.storageOps,
		m.refreshRuns,
		m.refreshLastCount,
	)

	return m
}

// RecordUpstreamRequest records one upstream call and its latency
func (m *ServiceMetrics) RecordUpstreamRequest(provider, operation string, success bool, processingTime time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(provider, operation, outcome(success)).Inc()
	m.upstreamLatency.WithLabelValues(provider, operation).Observe(processingTime.Seconds())
}

// RecordStorageOperation records one persistence call
func (m *ServiceMetrics) RecordStorageOperation(backend, operation string, err error) {
	if m == nil {
		return
	}
	m.storageOps.WithLabelValues(backend, operation, outcome(err == nil)).Inc()
}

// RecordRefreshRun records a refresh job run; count is only kept for successful runs
func (m *ServiceMetrics) RecordRefreshRun(count int, err error) {
	if m == nil {
		return
	}
	m.refreshRuns.WithLabelValues(outcome(err == nil)).Inc()
	if err == nil {
		m.refreshLastCount.Set(float64(count))
	}
}

func outcome(success bool) string {
	if success {
		return OutcomeSuccess
	}
	return OutcomeFailure
}
