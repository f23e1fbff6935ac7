package config

import (
	"time"

	"docforge-hq/warden/pkg/admission/catalog"
	"docforge-hq/warden/pkg/admission/quota"
	"docforge-hq/warden/pkg/admission/ratelimit"
	"docforge-hq/warden/pkg/retention"
)

// CatalogEntries converts the policy table into catalog override entries.
// Validation has already rejected unknown tiers and policies.
func (c *AdmissionConfig) CatalogEntries() map[catalog.Tier]map[catalog.Policy]catalog.PolicySettings {
	if len(c.Policies) == 0 {
		return nil
	}

	entries := make(map[catalog.Tier]map[catalog.Policy]catalog.PolicySettings)
	for _, entry := range c.Policies {
		tier := catalog.Tier(entry.Tier)
		if entries[tier] == nil {
			entries[tier] = make(map[catalog.Policy]catalog.PolicySettings)
		}
		entries[tier][catalog.Policy(entry.Policy)] = catalog.PolicySettings{
			PermitLimit: entry.PermitLimit,
			Window:      time.Duration(entry.WindowMinutes) * time.Minute,
		}
	}
	return entries
}

// RateLimitConfig converts the admission section into the resolver's
// configuration.
func (c *AdmissionConfig) RateLimitConfig() ratelimit.Config {
	return ratelimit.Config{
		ExemptAdmins: c.ExemptAdmins != nil && *c.ExemptAdmins,
		CacheTTL:     c.CacheTTL,
	}
}

// QuotaConfig converts the quota section into the ledger's configuration.
func (c *AdmissionConfig) QuotaConfig() quota.Config {
	out := quota.Config{
		Enabled:      c.Quota.Enabled != nil && *c.Quota.Enabled,
		ExemptAdmins: c.Quota.ExemptAdmins != nil && *c.Quota.ExemptAdmins,
	}
	if len(c.Quota.Tiers) > 0 {
		out.TierLimits = make(map[catalog.Tier]quota.Limits, len(c.Quota.Tiers))
		for tier, limits := range c.Quota.Tiers {
			out.TierLimits[catalog.Tier(tier)] = quota.Limits{
				Conversions: limits.Conversions,
				Bytes:       limits.Bytes,
			}
		}
	}
	if c.Quota.Admin != nil {
		out.AdminLimits = &quota.Limits{
			Conversions: c.Quota.Admin.Conversions,
			Bytes:       c.Quota.Admin.Bytes,
		}
	}
	return out
}

// ReconcilerConfig converts the retention section into the reconciler's
// configuration.
func (c *RetentionConfig) ReconcilerConfig() retention.Config {
	return retention.Config{
		Enabled:                c.Enabled != nil && *c.Enabled,
		CompletedRetentionDays: c.CompletedRetentionDays,
		FailedRetentionDays:    c.FailedRetentionDays,
		BatchSize:              c.BatchSize,
		RunInterval:            c.RunInterval,
		DryRun:                 c.DryRun,
	}
}
