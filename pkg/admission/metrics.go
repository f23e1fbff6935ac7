package admission

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for the admission subsystem. All
// record methods are safe on a nil receiver so components can run without
// metrics in tests.
type Metrics struct {
	// Rate limit resolution
	resolutions        *prometheus.CounterVec
	resolutionFailures prometheus.Counter
	resolutionDuration *prometheus.HistogramVec

	// Quota checks
	quotaChecks prometheus.Counter
	quotaDenies *prometheus.CounterVec

	// Usage recording
	usageRecords  prometheus.Counter
	bytesRecorded prometheus.Counter
}

// NewMetrics creates a new Metrics instance with Prometheus collectors.
// Call it once per process; promauto registers with the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		resolutions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_admission_resolutions_total",
				Help: "Total number of rate limit resolutions by winning source",
			},
			[]string{"source"},
		),

		resolutionFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "warden_admission_resolution_failures_total",
				Help: "Total number of rate limit resolutions that returned an error",
			},
		),

		resolutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warden_admission_resolution_duration_seconds",
				Help:    "Duration of rate limit resolutions in seconds",
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
			[]string{"policy"},
		),

		quotaChecks: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "warden_admission_quota_checks_total",
				Help: "Total number of quota checks performed",
			},
		),

		quotaDenies: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_admission_quota_denials_total",
				Help: "Total number of quota checks denied by exceeded resource",
			},
			[]string{"resource"},
		),

		usageRecords: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "warden_admission_usage_records_total",
				Help: "Total number of conversions recorded against quotas",
			},
		),

		bytesRecorded: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "warden_admission_bytes_recorded_total",
				Help: "Total bytes of conversion output recorded against quotas",
			},
		),
	}
}

// RecordResolution records a completed rate limit resolution.
func (m *Metrics) RecordResolution(source string, policy string, seconds float64) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(source).Inc()
	m.resolutionDuration.WithLabelValues(policy).Observe(seconds)
}

// RecordResolutionFailure records a rate limit resolution error.
func (m *Metrics) RecordResolutionFailure() {
	if m == nil {
		return
	}
	m.resolutionFailures.Inc()
}

// RecordQuotaCheck records a quota check and, if denied, the resource that
// tripped it.
func (m *Metrics) RecordQuotaCheck(deniedResource string) {
	if m == nil {
		return
	}
	m.quotaChecks.Inc()
	if deniedResource != "" {
		m.quotaDenies.WithLabelValues(deniedResource).Inc()
	}
}

// RecordUsage records one conversion and its byte count.
func (m *Metrics) RecordUsage(bytes int64) {
	if m == nil {
		return
	}
	m.usageRecords.Inc()
	m.bytesRecorded.Add(float64(bytes))
}
