package config

import (
	"fmt"
	"strings"

	"docforge-hq/warden/pkg/admission/catalog"
	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the field (e.g. "retention.batch_size").
	Field string

	// Message is a human-readable error message.
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every validation failure in a configuration.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate checks the entire configuration and returns a ValidationError
// listing every problem found, or nil if the configuration is valid.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateAdmission(&cfg.Admission)...)
	errs = append(errs, validateRetention(&cfg.Retention)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError
	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{"server.listen_address", "must not be empty"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{"server.shutdown_timeout", "must not be negative"})
	}
	return errs
}

func validateAdmission(cfg *AdmissionConfig) []FieldError {
	var errs []FieldError

	if cfg.CacheTTL <= 0 {
		errs = append(errs, FieldError{"admission.cache_ttl", "must be positive"})
	}

	for i, entry := range cfg.Policies {
		field := fmt.Sprintf("admission.policies[%d]", i)
		if !catalog.ValidTier(entry.Tier) {
			errs = append(errs, FieldError{field + ".tier",
				fmt.Sprintf("unknown tier %q", entry.Tier)})
		}
		if !catalog.ValidPolicy(entry.Policy) {
			errs = append(errs, FieldError{field + ".policy",
				fmt.Sprintf("unknown policy %q", entry.Policy)})
		}
		if entry.PermitLimit <= 0 {
			errs = append(errs, FieldError{field + ".permit_limit", "must be positive"})
		}
		if entry.WindowMinutes <= 0 {
			errs = append(errs, FieldError{field + ".window_minutes", "must be positive"})
		}
	}

	for tier, limits := range cfg.Quota.Tiers {
		field := fmt.Sprintf("admission.quota.tiers[%s]", tier)
		if !catalog.ValidTier(tier) {
			errs = append(errs, FieldError{field, fmt.Sprintf("unknown tier %q", tier)})
		}
		if limits.Conversions <= 0 {
			errs = append(errs, FieldError{field + ".conversions", "must be positive"})
		}
		if limits.Bytes <= 0 {
			errs = append(errs, FieldError{field + ".bytes", "must be positive"})
		}
	}
	if cfg.Quota.Admin != nil {
		if cfg.Quota.Admin.Conversions <= 0 {
			errs = append(errs, FieldError{"admission.quota.admin.conversions", "must be positive"})
		}
		if cfg.Quota.Admin.Bytes <= 0 {
			errs = append(errs, FieldError{"admission.quota.admin.bytes", "must be positive"})
		}
	}

	return errs
}

func validateRetention(cfg *RetentionConfig) []FieldError {
	var errs []FieldError
	if cfg.CompletedRetentionDays <= 0 {
		errs = append(errs, FieldError{"retention.completed_retention_days", "must be positive"})
	}
	if cfg.FailedRetentionDays <= 0 {
		errs = append(errs, FieldError{"retention.failed_retention_days", "must be positive"})
	}
	if cfg.BatchSize <= 0 {
		errs = append(errs, FieldError{"retention.batch_size", "must be positive"})
	}
	if cfg.RunInterval <= 0 {
		errs = append(errs, FieldError{"retention.run_interval", "must be positive"})
	}
	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			errs = append(errs, FieldError{"retention.schedule",
				fmt.Sprintf("invalid cron expression: %v", err)})
		}
	}
	return errs
}

func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError
	if cfg.AdmissionPath == "" {
		errs = append(errs, FieldError{"storage.admission_path", "must not be empty"})
	}
	if cfg.JobsPath == "" {
		errs = append(errs, FieldError{"storage.jobs_path", "must not be empty"})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{"storage.busy_timeout", "must not be negative"})
	}
	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level",
			fmt.Sprintf("must be one of debug, info, warn, error; got %q", cfg.Logging.Level)})
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format",
			fmt.Sprintf("must be json or text; got %q", cfg.Logging.Format)})
	}
	if cfg.Metrics.Path != "" && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{"telemetry.metrics.path", "must start with /"})
	}
	return errs
}
