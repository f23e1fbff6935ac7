package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"docforge-hq/warden/pkg/admission/catalog"
)

func TestMemorySettingsStore_AddAndGet(t *testing.T) {
	store := NewMemorySettingsStore()
	ctx := context.Background()

	settings := NewRateLimitSettings("user-1")
	settings.Tier = catalog.TierPremium
	settings.SetOverride(catalog.PolicyConversion, catalog.PolicySettings{
		PermitLimit: 10,
		Window:      15 * time.Minute,
	})

	if err := store.Add(ctx, settings); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	loaded, err := store.GetByUserID(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetByUserID failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected settings, got nil")
	}
	if loaded.Tier != catalog.TierPremium {
		t.Errorf("Expected tier premium, got %s", loaded.Tier)
	}

	ov, ok := loaded.Override(catalog.PolicyConversion)
	if !ok {
		t.Fatal("Expected conversion override to survive the roundtrip")
	}
	if ov.PermitLimit != 10 || ov.Window != 15*time.Minute {
		t.Errorf("Expected override 10/15m, got %s", ov)
	}
	if _, ok := loaded.Override(catalog.PolicyStandard); ok {
		t.Error("Expected no standard override")
	}
}

func TestMemorySettingsStore_GetAbsent(t *testing.T) {
	store := NewMemorySettingsStore()

	loaded, err := store.GetByUserID(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetByUserID failed: %v", err)
	}
	if loaded != nil {
		t.Errorf("Expected nil for absent row, got %v", loaded)
	}
}

func TestMemorySettingsStore_AddDuplicate(t *testing.T) {
	store := NewMemorySettingsStore()
	ctx := context.Background()

	if err := store.Add(ctx, NewRateLimitSettings("user-1")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	err := store.Add(ctx, NewRateLimitSettings("user-1"))
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}
}

func TestMemorySettingsStore_CloneIsolation(t *testing.T) {
	store := NewMemorySettingsStore()
	ctx := context.Background()

	settings := NewRateLimitSettings("user-1")
	if err := store.Add(ctx, settings); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// Mutating the caller's copy must not leak into the store
	settings.SetOverride(catalog.PolicyStandard, catalog.PolicySettings{PermitLimit: 1, Window: time.Minute})

	loaded, err := store.GetByUserID(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetByUserID failed: %v", err)
	}
	if _, ok := loaded.Override(catalog.PolicyStandard); ok {
		t.Error("Store row was mutated through the caller's pointer")
	}
}

func TestMemoryQuotaStore_AddAndGet(t *testing.T) {
	store := NewMemoryQuotaStore()
	ctx := context.Background()

	quota := &UsageQuota{
		UserID:           "user-1",
		Year:             2026,
		Month:            9,
		ConversionsUsed:  3,
		ConversionsLimit: 100,
		BytesProcessed:   1024,
		BytesLimit:       1_000_000,
	}
	if err := store.Add(ctx, quota); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	loaded, err := store.GetByUserAndMonth(ctx, "user-1", 2026, 9)
	if err != nil {
		t.Fatalf("GetByUserAndMonth failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected quota, got nil")
	}
	if loaded.ConversionsUsed != 3 || loaded.BytesProcessed != 1024 {
		t.Errorf("Unexpected counters: %+v", loaded)
	}

	// A different month is a different row
	other, err := store.GetByUserAndMonth(ctx, "user-1", 2026, 10)
	if err != nil {
		t.Fatalf("GetByUserAndMonth failed: %v", err)
	}
	if other != nil {
		t.Error("Expected nil for absent month")
	}
}

func TestMemoryQuotaStore_AddDuplicate(t *testing.T) {
	store := NewMemoryQuotaStore()
	ctx := context.Background()

	quota := &UsageQuota{UserID: "user-1", Year: 2026, Month: 9}
	if err := store.Add(ctx, quota); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	err := store.Add(ctx, &UsageQuota{UserID: "user-1", Year: 2026, Month: 9})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}
}

func TestMemoryQuotaStore_GetByUserOrdering(t *testing.T) {
	store := NewMemoryQuotaStore()
	ctx := context.Background()

	periods := []struct{ year, month int }{
		{2026, 1}, {2025, 12}, {2026, 3}, {2025, 6},
	}
	for _, p := range periods {
		quota := &UsageQuota{UserID: "user-1", Year: p.year, Month: p.month}
		if err := store.Add(ctx, quota); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	// Another user's rows must not appear
	if err := store.Add(ctx, &UsageQuota{UserID: "user-2", Year: 2026, Month: 2}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	quotas, err := store.GetByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(quotas) != 4 {
		t.Fatalf("Expected 4 rows, got %d", len(quotas))
	}

	want := []struct{ year, month int }{
		{2026, 3}, {2026, 1}, {2025, 12}, {2025, 6},
	}
	for i, w := range want {
		if quotas[i].Year != w.year || quotas[i].Month != w.month {
			t.Errorf("Row %d: expected %d-%02d, got %d-%02d",
				i, w.year, w.month, quotas[i].Year, quotas[i].Month)
		}
	}
}

func TestUsageQuota_Exceeded(t *testing.T) {
	tests := []struct {
		name            string
		quota           UsageQuota
		wantConversions bool
		wantBytes       bool
	}{
		{
			name:  "fresh row",
			quota: UsageQuota{ConversionsLimit: 100, BytesLimit: 1_000_000},
		},
		{
			name: "conversions at limit",
			quota: UsageQuota{
				ConversionsUsed: 100, ConversionsLimit: 100,
				BytesProcessed: 500, BytesLimit: 1_000_000,
			},
			wantConversions: true,
		},
		{
			name: "bytes at limit",
			quota: UsageQuota{
				ConversionsUsed: 1, ConversionsLimit: 100,
				BytesProcessed: 1_000_000, BytesLimit: 1_000_000,
			},
			wantBytes: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.quota.ConversionsExceeded(); got != tt.wantConversions {
				t.Errorf("ConversionsExceeded = %v, want %v", got, tt.wantConversions)
			}
			if got := tt.quota.BytesExceeded(); got != tt.wantBytes {
				t.Errorf("BytesExceeded = %v, want %v", got, tt.wantBytes)
			}
		})
	}
}
