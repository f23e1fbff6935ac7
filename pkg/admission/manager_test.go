package admission

import (
	"context"
	"errors"
	"testing"
	"time"

	"docforge-hq/warden/pkg/admission/catalog"
	"docforge-hq/warden/pkg/admission/quota"
	"docforge-hq/warden/pkg/admission/ratelimit"
	"docforge-hq/warden/pkg/admission/storage"
	"docforge-hq/warden/pkg/users"
)

func newTestManager(t *testing.T, config Config) (*Manager, *users.MemoryDirectory) {
	t.Helper()

	directory := users.NewMemoryDirectory()
	manager := NewManager(
		directory,
		storage.NewMemorySettingsStore(),
		storage.NewMemoryQuotaStore(),
		catalog.Default(),
		config,
		nil, // no metrics in tests
		nil,
	)
	return manager, directory
}

func TestManager_ConversionFlow(t *testing.T) {
	manager, _ := newTestManager(t, Config{
		Quota: quota.Config{Enabled: true},
	})
	ctx := context.Background()

	// Resolve, check, convert, record: the request path in order
	limits, err := manager.EffectiveLimits(ctx, "user-1", "conversion")
	if err != nil {
		t.Fatalf("EffectiveLimits failed: %v", err)
	}
	if limits.Bypass {
		t.Error("Expected enforced limits for a free user")
	}

	if _, err := manager.CheckQuota(ctx, "user-1"); err != nil {
		t.Fatalf("CheckQuota failed: %v", err)
	}
	if err := manager.RecordUsage(ctx, "user-1", 4096); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}

	row, err := manager.CurrentQuota(ctx, "user-1")
	if err != nil {
		t.Fatalf("CurrentQuota failed: %v", err)
	}
	if row.ConversionsUsed != 1 || row.BytesProcessed != 4096 {
		t.Errorf("Expected 1 conversion / 4096 bytes, got %d/%d",
			row.ConversionsUsed, row.BytesProcessed)
	}
}

func TestManager_QuotaDenial(t *testing.T) {
	manager, _ := newTestManager(t, Config{
		Quota: quota.Config{
			Enabled: true,
			TierLimits: map[catalog.Tier]quota.Limits{
				catalog.TierFree: {Conversions: 1, Bytes: 1 << 20},
			},
		},
	})
	ctx := context.Background()

	if err := manager.RecordUsage(ctx, "user-1", 100); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}

	_, err := manager.CheckQuota(ctx, "user-1")
	if !errors.Is(err, quota.ErrQuotaExceeded) {
		t.Fatalf("Expected ErrQuotaExceeded, got %v", err)
	}
}

func TestManager_TierAndOverrideMutations(t *testing.T) {
	manager, _ := newTestManager(t, Config{})
	ctx := context.Background()

	if err := manager.UpdateTier(ctx, "user-1", catalog.TierPremium); err != nil {
		t.Fatalf("UpdateTier failed: %v", err)
	}
	limits, err := manager.EffectiveLimits(ctx, "user-1", "standard")
	if err != nil {
		t.Fatalf("EffectiveLimits failed: %v", err)
	}
	premium := catalog.Default().Lookup(catalog.TierPremium, catalog.PolicyStandard)
	if limits.PermitLimit != premium.PermitLimit {
		t.Errorf("Expected premium limit %d, got %d", premium.PermitLimit, limits.PermitLimit)
	}

	override := catalog.PolicySettings{PermitLimit: 7, Window: 2 * time.Minute}
	if err := manager.SetPolicyOverride(ctx, "user-1", "standard", override); err != nil {
		t.Fatalf("SetPolicyOverride failed: %v", err)
	}
	limits, err = manager.EffectiveLimits(ctx, "user-1", "standard")
	if err != nil {
		t.Fatalf("EffectiveLimits failed: %v", err)
	}
	if limits.Source != ratelimit.SourceOverride || limits.PermitLimit != 7 {
		t.Errorf("Expected override 7, got %s", limits)
	}

	if err := manager.ClearAllOverrides(ctx, "user-1"); err != nil {
		t.Fatalf("ClearAllOverrides failed: %v", err)
	}
	limits, err = manager.EffectiveLimits(ctx, "user-1", "standard")
	if err != nil {
		t.Fatalf("EffectiveLimits failed: %v", err)
	}
	if limits.Source != ratelimit.SourceTier {
		t.Errorf("Expected tier source after clear, got %s", limits.Source)
	}
}

func TestManager_NilMetricsSafe(t *testing.T) {
	var m *Metrics

	// Every recorder must tolerate a nil receiver
	m.RecordResolution("tier", "standard", 0.001)
	m.RecordResolutionFailure()
	m.RecordQuotaCheck("conversions")
	m.RecordQuotaCheck("")
	m.RecordUsage(1024)
}

func TestManager_QuotaAdminFlow(t *testing.T) {
	manager, directory := newTestManager(t, Config{
		RateLimit: ratelimit.Config{ExemptAdmins: true},
		Quota:     quota.Config{Enabled: true, ExemptAdmins: true},
	})
	ctx := context.Background()
	directory.Put(&users.User{ID: "admin-1", IsAdmin: true})

	limits, err := manager.EffectiveLimits(ctx, "admin-1", "conversion")
	if err != nil {
		t.Fatalf("EffectiveLimits failed: %v", err)
	}
	if !limits.Bypass || limits.Source != ratelimit.SourceAdmin {
		t.Errorf("Expected admin bypass, got %s", limits)
	}

	row, err := manager.CheckQuota(ctx, "admin-1")
	if err != nil {
		t.Fatalf("CheckQuota failed: %v", err)
	}
	if row != nil {
		t.Error("Exempt admin must not get a quota row")
	}
}

func TestManager_ReloadPolicies(t *testing.T) {
	manager, _ := newTestManager(t, Config{
		RateLimit: ratelimit.Config{CacheTTL: time.Hour},
	})
	ctx := context.Background()

	limits, err := manager.EffectiveLimits(ctx, "user-1", "conversion")
	if err != nil {
		t.Fatalf("EffectiveLimits failed: %v", err)
	}
	if limits.PermitLimit != 50 {
		t.Fatalf("Expected default limit 50, got %d", limits.PermitLimit)
	}

	manager.ReloadPolicies(catalog.New(map[catalog.Tier]map[catalog.Policy]catalog.PolicySettings{
		catalog.TierFree: {
			catalog.PolicyConversion: {PermitLimit: 5, Window: 10 * time.Minute},
		},
	}))

	limits, err = manager.EffectiveLimits(ctx, "user-1", "conversion")
	if err != nil {
		t.Fatalf("EffectiveLimits after reload failed: %v", err)
	}
	if limits.PermitLimit != 5 || limits.Window != 10*time.Minute {
		t.Errorf("Expected reloaded 5/10m, got %d/%s", limits.PermitLimit, limits.Window)
	}
}
