package config

import "time"

// Config is the root configuration structure for warden. It contains the
// admission subsystem's tunables, retention settings, storage paths, the
// blob store, and telemetry.
type Config struct {
	// Server contains the HTTP endpoint exposing health and metrics.
	Server ServerConfig `yaml:"server"`

	// Admission contains rate limit resolution and quota settings.
	Admission AdmissionConfig `yaml:"admission"`

	// Retention contains the background cleanup loop settings.
	Retention RetentionConfig `yaml:"retention"`

	// Storage contains the SQLite database paths.
	Storage StorageConfig `yaml:"storage"`

	// Blob contains the object store holding conversion payloads.
	Blob BlobConfig `yaml:"blob"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains the operational HTTP endpoint configuration.
type ServerConfig struct {
	// ListenAddress is the address for /healthz and /metrics.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AdmissionConfig contains the admission subsystem's tunables.
type AdmissionConfig struct {
	// ExemptAdmins lets admin users bypass rate limit resolution.
	// Default: true
	ExemptAdmins *bool `yaml:"exempt_admins"`

	// AdminUserIDs lists the user ids treated as admins by the static
	// user directory.
	AdminUserIDs []string `yaml:"admin_user_ids"`

	// CacheTTL is the absolute expiry of cached per-user settings. Entries
	// idle for half this long are dropped early.
	// Default: 5m
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// Policies overrides catalog cells. Unlisted (tier, policy) pairs keep
	// their built-in defaults.
	Policies []PolicyEntry `yaml:"policies"`

	// Quota contains the monthly usage ledger settings.
	Quota QuotaConfig `yaml:"quota"`
}

// PolicyEntry overrides one cell of the policy catalog.
type PolicyEntry struct {
	// Tier is one of "free", "premium", "unlimited".
	Tier string `yaml:"tier"`

	// Policy is one of "standard", "conversion".
	Policy string `yaml:"policy"`

	// PermitLimit is the number of permits per window.
	PermitLimit int `yaml:"permit_limit"`

	// WindowMinutes is the window length in minutes.
	WindowMinutes int `yaml:"window_minutes"`
}

// QuotaConfig contains the monthly usage ledger settings.
type QuotaConfig struct {
	// Enabled turns quota enforcement on.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// ExemptAdmins skips quota checks for admin users.
	// Default: true
	ExemptAdmins *bool `yaml:"exempt_admins"`

	// Tiers overrides the monthly allowances per tier. Unlisted tiers keep
	// their built-in defaults.
	Tiers map[string]QuotaLimits `yaml:"tiers"`

	// Admin, when set, replaces the tier allowance for admin users at
	// quota row creation.
	Admin *QuotaLimits `yaml:"admin"`
}

// QuotaLimits is a pair of monthly allowances.
type QuotaLimits struct {
	// Conversions is the monthly conversion count allowance.
	Conversions int `yaml:"conversions"`

	// Bytes is the monthly processed-bytes allowance.
	Bytes int64 `yaml:"bytes"`
}

// RetentionConfig contains the cleanup loop settings.
type RetentionConfig struct {
	// Enabled turns expired-job cleanup on.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// CompletedRetentionDays is how long completed jobs are kept.
	// Default: 30
	CompletedRetentionDays int `yaml:"completed_retention_days"`

	// FailedRetentionDays is how long failed jobs are kept.
	// Default: 7
	FailedRetentionDays int `yaml:"failed_retention_days"`

	// BatchSize caps rows removed per tick per status.
	// Default: 100
	BatchSize int `yaml:"batch_size"`

	// RunInterval is the sleep between ticks.
	// Default: 60m
	RunInterval time.Duration `yaml:"run_interval"`

	// Schedule, when set, replaces the interval loop with a cron schedule
	// (e.g. "0 3 * * *" for daily at 3 AM).
	Schedule string `yaml:"schedule"`

	// DryRun logs what would be removed without removing anything.
	DryRun bool `yaml:"dry_run"`
}

// StorageConfig contains the SQLite database paths.
type StorageConfig struct {
	// AdmissionPath is the settings and quota database file.
	// Default: "data/admission.db"
	AdmissionPath string `yaml:"admission_path"`

	// JobsPath is the conversion job database file.
	// Default: "data/jobs.db"
	JobsPath string `yaml:"jobs_path"`

	// BusyTimeout is the duration to wait when a database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// BlobConfig contains the object store settings.
type BlobConfig struct {
	// Bucket is the bucket holding conversion payloads. Empty disables the
	// blob store; retention then skips payload deletion.
	Bucket string `yaml:"bucket"`

	// Region is the AWS region.
	Region string `yaml:"region"`

	// Endpoint points the client at an S3-compatible service.
	Endpoint string `yaml:"endpoint"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains the Prometheus endpoint configuration.
type MetricsConfig struct {
	// Enabled turns the /metrics endpoint on.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the metrics endpoint path.
	// Default: "/metrics"
	Path string `yaml:"path"`
}
