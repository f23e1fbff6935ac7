package admission

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"docforge-hq/warden/pkg/admission/catalog"
	"docforge-hq/warden/pkg/admission/quota"
	"docforge-hq/warden/pkg/admission/ratelimit"
	"docforge-hq/warden/pkg/admission/storage"
	"docforge-hq/warden/pkg/users"
)

// Config carries the admission subsystem's tunables.
type Config struct {
	RateLimit ratelimit.Config
	Quota     quota.Config
}

// Manager is the admission facade the request-handling layer talks to. It
// combines the rate limit resolver and the quota ledger and records metrics
// around both.
type Manager struct {
	resolver *ratelimit.Resolver
	ledger   *quota.Ledger
	metrics  *Metrics
	logger   *slog.Logger
}

// NewManager wires a resolver and ledger over the given collaborators.
// metrics may be nil; logger nil means slog.Default.
func NewManager(directory users.Directory, settings storage.SettingsStore, quotas storage.QuotaStore, cat *catalog.Catalog, config Config, metrics *Metrics, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		resolver: ratelimit.NewResolver(directory, settings, cat, config.RateLimit, logger),
		ledger:   quota.NewLedger(directory, settings, quotas, config.Quota, logger),
		metrics:  metrics,
		logger:   logger.With("component", "admission"),
	}
}

// EffectiveLimits resolves the admission decision for a user and policy.
func (m *Manager) EffectiveLimits(ctx context.Context, userID, policyName string) (*ratelimit.EffectiveLimits, error) {
	start := time.Now()
	limits, err := m.resolver.EffectiveLimits(ctx, userID, policyName)
	if err != nil {
		m.metrics.RecordResolutionFailure()
		return nil, err
	}
	m.metrics.RecordResolution(string(limits.Source), policyName, time.Since(start).Seconds())
	return limits, nil
}

// CheckQuota verifies the user's monthly allowance before a conversion.
func (m *Manager) CheckQuota(ctx context.Context, userID string) (*storage.UsageQuota, error) {
	row, err := m.ledger.Check(ctx, userID)
	if err != nil {
		var exceeded *quota.ExceededError
		if errors.As(err, &exceeded) {
			m.metrics.RecordQuotaCheck(string(exceeded.Resource))
			m.logger.Info("Quota check denied",
				"user_id", userID,
				"resource", exceeded.Resource,
				"used", exceeded.Used,
				"limit", exceeded.Limit)
		}
		return row, err
	}
	m.metrics.RecordQuotaCheck("")
	return row, nil
}

// RecordUsage accounts one completed conversion of the given size.
func (m *Manager) RecordUsage(ctx context.Context, userID string, bytes int64) error {
	if err := m.ledger.Record(ctx, userID, bytes); err != nil {
		return err
	}
	m.metrics.RecordUsage(bytes)
	return nil
}

// UpdateTier moves a user to a new tier and invalidates their cached
// settings.
func (m *Manager) UpdateTier(ctx context.Context, userID string, tier catalog.Tier) error {
	return m.resolver.UpdateTier(ctx, userID, tier)
}

// SetPolicyOverride installs a per-user limit for one policy.
func (m *Manager) SetPolicyOverride(ctx context.Context, userID, policyName string, settings catalog.PolicySettings) error {
	return m.resolver.SetPolicyOverride(ctx, userID, policyName, settings)
}

// ClearAllOverrides removes every per-user limit, restoring tier defaults.
func (m *Manager) ClearAllOverrides(ctx context.Context, userID string) error {
	return m.resolver.ClearAllOverrides(ctx, userID)
}

// GetOrCreateSettings returns the user's rate limit settings row, creating
// the default row on first touch.
func (m *Manager) GetOrCreateSettings(ctx context.Context, userID string) (*storage.RateLimitSettings, error) {
	return m.resolver.GetOrCreateSettings(ctx, userID)
}

// CurrentQuota returns the user's current-month usage row.
func (m *Manager) CurrentQuota(ctx context.Context, userID string) (*storage.UsageQuota, error) {
	return m.ledger.Current(ctx, userID)
}

// QuotaHistory returns up to months of recent usage rows, newest first.
func (m *Manager) QuotaHistory(ctx context.Context, userID string, months int) ([]*storage.UsageQuota, error) {
	return m.ledger.History(ctx, userID, months)
}

// UpdateQuotaLimits overwrites the current month's limits for a user.
func (m *Manager) UpdateQuotaLimits(ctx context.Context, userID string, conversionsLimit int, bytesLimit int64) error {
	return m.ledger.UpdateLimits(ctx, userID, conversionsLimit, bytesLimit)
}

// ReloadPolicies replaces the policy catalog and flushes cached settings so
// the new limits apply to the next resolution. Wired to config reloads.
func (m *Manager) ReloadPolicies(cat *catalog.Catalog) {
	m.resolver.SetCatalog(cat)
	m.logger.Info("Policy catalog reloaded")
}

// FlushCache drops every cached settings entry. Wired to config reloads.
func (m *Manager) FlushCache() {
	m.resolver.FlushCache()
	m.logger.Info("Settings cache flushed")
}
