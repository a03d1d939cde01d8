package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics tracks replays of locally queued orders.
type SyncMetrics struct {
	records  *prometheus.CounterVec
	drains   *prometheus.CounterVec
	pending  prometheus.Gauge
	duration prometheus.Histogram
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	records := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "offline_sync_records_total",
		Help: "Queued orders replayed against the remote store, by outcome.",
	}, []string{"outcome"})
	drains := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "offline_sync_drains_total",
		Help: "Drain attempts, by result.",
	}, []string{"result"})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "offline_sync_pending_orders",
		Help: "Orders waiting in pending status.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "offline_sync_drain_duration_seconds",
		Help:    "Duration of a full drain pass in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(records, drains, pending, duration)
	return &SyncMetrics{
		records:  records,
		drains:   drains,
		pending:  pending,
		duration: duration,
	}
}

// RecordSynced counts a record that reached the remote store.
func (m *SyncMetrics) RecordSynced() {
	if m == nil || m.records == nil {
		return
	}
	m.records.WithLabelValues("synced").Inc()
}

// RecordFailed counts a record whose replay failed.
func (m *SyncMetrics) RecordFailed() {
	if m == nil || m.records == nil {
		return
	}
	m.records.WithLabelValues("failed").Inc()
}

// DrainCompleted records a finished pass.
func (m *SyncMetrics) DrainCompleted(duration time.Duration) {
	if m == nil || m.drains == nil {
		return
	}
	m.drains.WithLabelValues("completed").Inc()
	m.duration.Observe(duration.Seconds())
}

// DrainSkipped records a call that found another drain in flight.
func (m *SyncMetrics) DrainSkipped() {
	if m == nil || m.drains == nil {
		return
	}
	m.drains.WithLabelValues("skipped").Inc()
}

// DrainFailed records a pass that could not read the queue.
func (m *SyncMetrics) DrainFailed() {
	if m == nil || m.drains == nil {
		return
	}
	m.drains.WithLabelValues("failed").Inc()
}

// SetPending publishes the current pending count.
func (m *SyncMetrics) SetPending(n int) {
	if m == nil || m.pending == nil {
		return
	}
	m.pending.Set(float64(n))
}
