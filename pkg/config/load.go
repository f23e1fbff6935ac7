package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file at the specified path, applies
// default values, and validates the result. Environment variables are not
// consulted; use LoadWithEnvOverrides for that.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the naming convention
// WARDEN_SECTION_FIELD (e.g. WARDEN_SERVER_LISTEN_ADDRESS) and always take
// precedence over file values.
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("WARDEN_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if d, ok := envDuration("WARDEN_SERVER_SHUTDOWN_TIMEOUT"); ok {
		cfg.Server.ShutdownTimeout = d
	}

	// Admission overrides
	if b, ok := envBool("WARDEN_ADMISSION_EXEMPT_ADMINS"); ok {
		cfg.Admission.ExemptAdmins = boolPtr(b)
	}
	if val := os.Getenv("WARDEN_ADMISSION_ADMIN_USER_IDS"); val != "" {
		cfg.Admission.AdminUserIDs = splitAndTrim(val)
	}
	if d, ok := envDuration("WARDEN_ADMISSION_CACHE_TTL"); ok {
		cfg.Admission.CacheTTL = d
	}
	if b, ok := envBool("WARDEN_ADMISSION_QUOTA_ENABLED"); ok {
		cfg.Admission.Quota.Enabled = boolPtr(b)
	}
	if b, ok := envBool("WARDEN_ADMISSION_QUOTA_EXEMPT_ADMINS"); ok {
		cfg.Admission.Quota.ExemptAdmins = boolPtr(b)
	}

	// Retention overrides
	if b, ok := envBool("WARDEN_RETENTION_ENABLED"); ok {
		cfg.Retention.Enabled = boolPtr(b)
	}
	if i, ok := envInt("WARDEN_RETENTION_COMPLETED_RETENTION_DAYS"); ok {
		cfg.Retention.CompletedRetentionDays = i
	}
	if i, ok := envInt("WARDEN_RETENTION_FAILED_RETENTION_DAYS"); ok {
		cfg.Retention.FailedRetentionDays = i
	}
	if i, ok := envInt("WARDEN_RETENTION_BATCH_SIZE"); ok {
		cfg.Retention.BatchSize = i
	}
	if d, ok := envDuration("WARDEN_RETENTION_RUN_INTERVAL"); ok {
		cfg.Retention.RunInterval = d
	}
	if val := os.Getenv("WARDEN_RETENTION_SCHEDULE"); val != "" {
		cfg.Retention.Schedule = val
	}
	if b, ok := envBool("WARDEN_RETENTION_DRY_RUN"); ok {
		cfg.Retention.DryRun = b
	}

	// Storage overrides
	if val := os.Getenv("WARDEN_STORAGE_ADMISSION_PATH"); val != "" {
		cfg.Storage.AdmissionPath = val
	}
	if val := os.Getenv("WARDEN_STORAGE_JOBS_PATH"); val != "" {
		cfg.Storage.JobsPath = val
	}

	// Blob overrides
	if val := os.Getenv("WARDEN_BLOB_BUCKET"); val != "" {
		cfg.Blob.Bucket = val
	}
	if val := os.Getenv("WARDEN_BLOB_REGION"); val != "" {
		cfg.Blob.Region = val
	}
	if val := os.Getenv("WARDEN_BLOB_ENDPOINT"); val != "" {
		cfg.Blob.Endpoint = val
	}

	// Telemetry overrides
	if val := os.Getenv("WARDEN_TELEMETRY_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("WARDEN_TELEMETRY_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if b, ok := envBool("WARDEN_TELEMETRY_METRICS_ENABLED"); ok {
		cfg.Telemetry.Metrics.Enabled = boolPtr(b)
	}
}

func envBool(key string) (bool, bool) {
	val := os.Getenv(key)
	if val == "" {
		return false, false
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, false
	}
	return b, true
}

func envInt(key string) (int, bool) {
	val := os.Getenv(key)
	if val == "" {
		return 0, false
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return i, true
}

func envDuration(key string) (time.Duration, bool) {
	val := os.Getenv(key)
	if val == "" {
		return 0, false
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, false
	}
	return d, true
}

func splitAndTrim(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
