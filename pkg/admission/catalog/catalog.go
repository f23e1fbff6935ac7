package catalog

import (
	"fmt"
	"time"
)

// Tier is a named service level driving default policy limits.
type Tier string

const (
	// TierFree is the default tier for new users.
	TierFree Tier = "free"

	// TierPremium is the paid tier with raised limits.
	TierPremium Tier = "premium"

	// TierUnlimited bypasses rate limiting entirely; its catalog entries are
	// nominal values used for reporting only.
	TierUnlimited Tier = "unlimited"
)

// Policy is a named admission rule.
type Policy string

const (
	// PolicyStandard governs general API traffic.
	PolicyStandard Policy = "standard"

	// PolicyConversion governs document-conversion requests, which are far
	// more expensive than ordinary API calls.
	PolicyConversion Policy = "conversion"
)

// Policies lists every recognized policy name.
var Policies = []Policy{PolicyStandard, PolicyConversion}

// Tiers lists every recognized tier.
var Tiers = []Tier{TierFree, TierPremium, TierUnlimited}

// PolicySettings is a permit-limit/window pair.
// It doubles as the per-user override value: an override either exists as a
// whole pair or not at all, so a half-set pair is unrepresentable.
type PolicySettings struct {
	// PermitLimit is the number of permits available per window.
	PermitLimit int

	// Window is the fixed window duration over which permits are counted.
	Window time.Duration
}

// String returns a compact human-readable form, e.g. "50/1h0m0s".
func (s PolicySettings) String() string {
	return fmt.Sprintf("%d/%s", s.PermitLimit, s.Window)
}

// Catalog maps (tier, policy) to default policy settings.
type Catalog struct {
	entries map[Tier]map[Policy]PolicySettings
}

// Default returns the compiled-in catalog. Deployments normally replace these
// values from configuration; the defaults keep the subsystem usable with an
// empty config file.
func Default() *Catalog {
	return New(nil)
}

// New creates a catalog from an explicit table. Missing (tier, policy) cells
// are filled from the compiled-in defaults so lookups always succeed.
func New(entries map[Tier]map[Policy]PolicySettings) *Catalog {
	c := &Catalog{entries: make(map[Tier]map[Policy]PolicySettings, len(Tiers))}
	for _, tier := range Tiers {
		c.entries[tier] = make(map[Policy]PolicySettings, len(Policies))
		for _, policy := range Policies {
			c.entries[tier][policy] = fallbackSettings(tier, policy)
		}
	}
	for tier, policies := range entries {
		if _, ok := c.entries[tier]; !ok {
			continue // unrecognized tier in config, ignore
		}
		for policy, settings := range policies {
			if !ValidPolicy(string(policy)) {
				continue
			}
			c.entries[tier][policy] = settings
		}
	}
	return c
}

// Lookup returns the default settings for a tier and policy.
// Unknown tiers resolve as Free; unknown policies resolve as standard.
func (c *Catalog) Lookup(tier Tier, policy Policy) PolicySettings {
	policies, ok := c.entries[tier]
	if !ok {
		policies = c.entries[TierFree]
	}
	settings, ok := policies[policy]
	if !ok {
		settings = policies[PolicyStandard]
	}
	return settings
}

// NormalizePolicy maps a policy name to a recognized Policy.
// Unrecognized names degrade to standard; this is deliberate admission
// behavior, not a validation error.
func NormalizePolicy(name string) Policy {
	if ValidPolicy(name) {
		return Policy(name)
	}
	return PolicyStandard
}

// ValidPolicy reports whether name is a recognized policy name.
func ValidPolicy(name string) bool {
	for _, p := range Policies {
		if string(p) == name {
			return true
		}
	}
	return false
}

// ValidTier reports whether name is a recognized tier name.
func ValidTier(name string) bool {
	for _, t := range Tiers {
		if string(t) == name {
			return true
		}
	}
	return false
}

// compiledDefaults is the fallback table used when configuration leaves a
// (tier, policy) cell unset.
var compiledDefaults = map[Tier]map[Policy]PolicySettings{
	TierFree: {
		PolicyStandard:   {PermitLimit: 30, Window: time.Minute},
		PolicyConversion: {PermitLimit: 50, Window: 60 * time.Minute},
	},
	TierPremium: {
		PolicyStandard:   {PermitLimit: 120, Window: time.Minute},
		PolicyConversion: {PermitLimit: 500, Window: 60 * time.Minute},
	},
	TierUnlimited: {
		PolicyStandard:   {PermitLimit: 1000, Window: time.Minute},
		PolicyConversion: {PermitLimit: 10000, Window: 60 * time.Minute},
	},
}

func fallbackSettings(tier Tier, policy Policy) PolicySettings {
	return compiledDefaults[tier][policy]
}
