package retention

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for the reconciler. All record
// methods are safe on a nil receiver.
type Metrics struct {
	rowsRemoved  *prometheus.CounterVec
	blobDeletes  prometheus.Counter
	blobFailures prometheus.Counter
	tickErrors   prometheus.Counter
	tickDuration prometheus.Histogram
}

// NewMetrics creates a new Metrics instance with Prometheus collectors.
// Call it once per process; promauto registers with the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		rowsRemoved: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_retention_rows_removed_total",
				Help: "Total number of expired job rows removed by status",
			},
			[]string{"status"},
		),

		blobDeletes: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "warden_retention_blob_deletes_total",
				Help: "Total number of payload blobs deleted",
			},
		),

		blobFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "warden_retention_blob_failures_total",
				Help: "Total number of payload blob deletions that failed",
			},
		),

		tickErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "warden_retention_tick_errors_total",
				Help: "Total number of reconciler ticks that failed",
			},
		),

		tickDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "warden_retention_tick_duration_seconds",
				Help:    "Duration of reconciler ticks in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to 4s
			},
		),
	}
}

// RecordTick records the outcome of one reconciler tick.
func (m *Metrics) RecordTick(result TickResult, seconds float64) {
	if m == nil {
		return
	}
	m.rowsRemoved.WithLabelValues("completed").Add(float64(result.CompletedRemoved))
	m.rowsRemoved.WithLabelValues("failed").Add(float64(result.FailedRemoved))
	m.blobDeletes.Add(float64(result.BlobsDeleted))
	m.blobFailures.Add(float64(result.BlobFailures))
	m.tickDuration.Observe(seconds)
}

// RecordTickError records a failed tick.
func (m *Metrics) RecordTickError() {
	if m == nil {
		return
	}
	m.tickErrors.Inc()
}
