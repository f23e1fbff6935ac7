package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:9090"
	DefaultShutdownTimeout = 15 * time.Second

	// Admission defaults
	DefaultExemptAdmins = true
	DefaultCacheTTL     = 5 * time.Minute

	// Quota defaults
	DefaultQuotaEnabled      = true
	DefaultQuotaExemptAdmins = true

	// Retention defaults
	DefaultRetentionEnabled       = true
	DefaultCompletedRetentionDays = 30
	DefaultFailedRetentionDays    = 7
	DefaultRetentionBatchSize     = 100
	DefaultRetentionRunInterval   = 60 * time.Minute

	// Storage defaults
	DefaultAdmissionPath = "data/admission.db"
	DefaultJobsPath      = "data/jobs.db"
	DefaultBusyTimeout   = 5 * time.Second

	// Telemetry defaults
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultMetricsEnabled = true
	DefaultMetricsPath    = "/metrics"
)

func boolPtr(b bool) *bool { return &b }

// ApplyDefaults fills in default values for any zero-valued fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Admission.ExemptAdmins == nil {
		cfg.Admission.ExemptAdmins = boolPtr(DefaultExemptAdmins)
	}
	if cfg.Admission.CacheTTL == 0 {
		cfg.Admission.CacheTTL = DefaultCacheTTL
	}
	if cfg.Admission.Quota.Enabled == nil {
		cfg.Admission.Quota.Enabled = boolPtr(DefaultQuotaEnabled)
	}
	if cfg.Admission.Quota.ExemptAdmins == nil {
		cfg.Admission.Quota.ExemptAdmins = boolPtr(DefaultQuotaExemptAdmins)
	}

	if cfg.Retention.Enabled == nil {
		cfg.Retention.Enabled = boolPtr(DefaultRetentionEnabled)
	}
	if cfg.Retention.CompletedRetentionDays == 0 {
		cfg.Retention.CompletedRetentionDays = DefaultCompletedRetentionDays
	}
	if cfg.Retention.FailedRetentionDays == 0 {
		cfg.Retention.FailedRetentionDays = DefaultFailedRetentionDays
	}
	if cfg.Retention.BatchSize == 0 {
		cfg.Retention.BatchSize = DefaultRetentionBatchSize
	}
	if cfg.Retention.RunInterval == 0 {
		cfg.Retention.RunInterval = DefaultRetentionRunInterval
	}

	if cfg.Storage.AdmissionPath == "" {
		cfg.Storage.AdmissionPath = DefaultAdmissionPath
	}
	if cfg.Storage.JobsPath == "" {
		cfg.Storage.JobsPath = DefaultJobsPath
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = DefaultBusyTimeout
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Enabled == nil {
		cfg.Telemetry.Metrics.Enabled = boolPtr(DefaultMetricsEnabled)
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
