package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"docforge-hq/warden/pkg/admission/catalog"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "warden.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "{}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("Expected default listen address, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Admission.CacheTTL != DefaultCacheTTL {
		t.Errorf("Expected default cache TTL, got %s", cfg.Admission.CacheTTL)
	}
	if cfg.Admission.ExemptAdmins == nil || !*cfg.Admission.ExemptAdmins {
		t.Error("Expected admin exemption on by default")
	}
	if cfg.Admission.Quota.Enabled == nil || !*cfg.Admission.Quota.Enabled {
		t.Error("Expected quotas enabled by default")
	}
	if cfg.Retention.CompletedRetentionDays != DefaultCompletedRetentionDays {
		t.Errorf("Expected default completed retention, got %d", cfg.Retention.CompletedRetentionDays)
	}
	if cfg.Retention.RunInterval != DefaultRetentionRunInterval {
		t.Errorf("Expected default run interval, got %s", cfg.Retention.RunInterval)
	}
	if cfg.Telemetry.Logging.Format != "json" {
		t.Errorf("Expected json logging by default, got %q", cfg.Telemetry.Logging.Format)
	}
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "0.0.0.0:9191"
admission:
  exempt_admins: false
  admin_user_ids: ["root", "ops"]
  cache_ttl: 2m
  policies:
    - tier: free
      policy: conversion
      permit_limit: 25
      window_minutes: 30
  quota:
    enabled: true
    tiers:
      free:
        conversions: 50
        bytes: 104857600
retention:
  completed_retention_days: 14
  failed_retention_days: 3
  batch_size: 50
  run_interval: 30m
  schedule: "0 3 * * *"
storage:
  admission_path: /var/lib/warden/admission.db
  jobs_path: /var/lib/warden/jobs.db
telemetry:
  logging:
    level: debug
    format: text
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9191" {
		t.Errorf("Listen address mismatch: %q", cfg.Server.ListenAddress)
	}
	if *cfg.Admission.ExemptAdmins {
		t.Error("Expected admin exemption off")
	}
	if len(cfg.Admission.AdminUserIDs) != 2 || cfg.Admission.AdminUserIDs[0] != "root" {
		t.Errorf("Admin ids mismatch: %v", cfg.Admission.AdminUserIDs)
	}
	if cfg.Admission.CacheTTL != 2*time.Minute {
		t.Errorf("Cache TTL mismatch: %s", cfg.Admission.CacheTTL)
	}
	if len(cfg.Admission.Policies) != 1 || cfg.Admission.Policies[0].PermitLimit != 25 {
		t.Errorf("Policies mismatch: %+v", cfg.Admission.Policies)
	}
	if cfg.Retention.BatchSize != 50 || cfg.Retention.Schedule != "0 3 * * *" {
		t.Errorf("Retention mismatch: %+v", cfg.Retention)
	}
	if cfg.Telemetry.Logging.Level != "debug" || cfg.Telemetry.Logging.Format != "text" {
		t.Errorf("Logging mismatch: %+v", cfg.Telemetry.Logging)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "admission: [not a map\n")

	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestLoad_ValidationRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown tier", `
admission:
  policies:
    - tier: platinum
      policy: standard
      permit_limit: 10
      window_minutes: 1
`},
		{"unknown policy", `
admission:
  policies:
    - tier: free
      policy: bulk
      permit_limit: 10
      window_minutes: 1
`},
		{"bad cron schedule", `
retention:
  schedule: "not cron"
`},
		{"bad log level", `
telemetry:
  logging:
    level: loud
`},
		{"negative quota", `
admission:
  quota:
    tiers:
      free:
        conversions: -1
        bytes: 100
`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			if _, err := Load(path); err == nil {
				t.Errorf("Expected validation error for %s", tc.name)
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:9090"
retention:
  batch_size: 100
`)

	t.Setenv("WARDEN_SERVER_LISTEN_ADDRESS", "0.0.0.0:8000")
	t.Setenv("WARDEN_RETENTION_BATCH_SIZE", "25")
	t.Setenv("WARDEN_ADMISSION_ADMIN_USER_IDS", "alice, bob")
	t.Setenv("WARDEN_ADMISSION_QUOTA_ENABLED", "false")
	t.Setenv("WARDEN_RETENTION_RUN_INTERVAL", "15m")

	cfg, err := LoadWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadWithEnvOverrides failed: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:8000" {
		t.Errorf("Expected env override for listen address, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Retention.BatchSize != 25 {
		t.Errorf("Expected env override for batch size, got %d", cfg.Retention.BatchSize)
	}
	if len(cfg.Admission.AdminUserIDs) != 2 || cfg.Admission.AdminUserIDs[1] != "bob" {
		t.Errorf("Expected parsed admin ids, got %v", cfg.Admission.AdminUserIDs)
	}
	if *cfg.Admission.Quota.Enabled {
		t.Error("Expected quota disabled via env")
	}
	if cfg.Retention.RunInterval != 15*time.Minute {
		t.Errorf("Expected 15m run interval, got %s", cfg.Retention.RunInterval)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := ValidationError{Errors: []FieldError{
		{Field: "retention.batch_size", Message: "must be positive"},
		{Field: "server.listen_address", Message: "must not be empty"},
	}}

	msg := err.Error()
	if msg == "" || len(err.Errors) != 2 {
		t.Errorf("Expected combined message, got %q", msg)
	}
}

func TestBridge_CatalogEntries(t *testing.T) {
	cfg := AdmissionConfig{
		Policies: []PolicyEntry{
			{Tier: "free", Policy: "conversion", PermitLimit: 25, WindowMinutes: 30},
		},
	}

	entries := cfg.CatalogEntries()
	settings, ok := entries[catalog.TierFree][catalog.PolicyConversion]
	if !ok {
		t.Fatal("Expected free/conversion entry")
	}
	if settings.PermitLimit != 25 || settings.Window != 30*time.Minute {
		t.Errorf("Entry mismatch: %+v", settings)
	}

	cat := catalog.New(entries)
	got := cat.Lookup(catalog.TierFree, catalog.PolicyConversion)
	if got.PermitLimit != 25 {
		t.Errorf("Catalog did not pick up the override, got %d", got.PermitLimit)
	}
}

func TestBridge_QuotaConfig(t *testing.T) {
	cfg := AdmissionConfig{
		Quota: QuotaConfig{
			Enabled: boolPtr(true),
			Tiers: map[string]QuotaLimits{
				"premium": {Conversions: 2000, Bytes: 1 << 34},
			},
			Admin: &QuotaLimits{Conversions: 99999, Bytes: 1 << 40},
		},
	}

	out := cfg.QuotaConfig()
	if !out.Enabled {
		t.Error("Expected enabled")
	}
	if out.TierLimits[catalog.TierPremium].Conversions != 2000 {
		t.Errorf("Tier limits mismatch: %+v", out.TierLimits)
	}
	if out.AdminLimits == nil || out.AdminLimits.Conversions != 99999 {
		t.Errorf("Admin limits mismatch: %+v", out.AdminLimits)
	}
}

func TestBridge_ReconcilerConfig(t *testing.T) {
	cfg := RetentionConfig{
		Enabled:                boolPtr(true),
		CompletedRetentionDays: 14,
		FailedRetentionDays:    3,
		BatchSize:              50,
		RunInterval:            30 * time.Minute,
		DryRun:                 true,
	}

	out := cfg.ReconcilerConfig()
	if !out.Enabled || !out.DryRun {
		t.Error("Flags not carried over")
	}
	if out.CompletedRetentionDays != 14 || out.BatchSize != 50 {
		t.Errorf("Values not carried over: %+v", out)
	}
}
