package ratelimit

import (
	"errors"
	"fmt"
	"time"

	"docforge-hq/warden/pkg/admission/catalog"
)

// ErrInvalidPolicy is returned by mutators given an unrecognized policy name.
// Resolution never returns it; unknown names degrade to standard there.
var ErrInvalidPolicy = errors.New("invalid policy name")

// Source identifies which rule produced an admission decision.
type Source string

const (
	// SourceAdmin means the admin bypass matched.
	SourceAdmin Source = "admin"

	// SourceTier means the tier's catalog defaults applied (including the
	// Unlimited tier's bypass).
	SourceTier Source = "tier"

	// SourceOverride means a per-user override pair applied.
	SourceOverride Source = "override"
)

// EffectiveLimits is the admission decision for one (user, policy) pair.
// Wire-level enforcement (header emission, 429 responses) is the calling
// middleware's job; this subsystem only computes the values it enforces.
type EffectiveLimits struct {
	// Bypass indicates the user is not rate limited at all. PermitLimit and
	// Window still carry nominal values for reporting.
	Bypass bool

	// PermitLimit is the number of permits per window.
	PermitLimit int

	// Window is the fixed window the permits are counted over.
	Window time.Duration

	// Source is the rule that produced this decision.
	Source Source
}

// String returns a compact form for logs, e.g. "override:10/15m0s".
func (e *EffectiveLimits) String() string {
	if e.Bypass {
		return fmt.Sprintf("%s:bypass", e.Source)
	}
	return fmt.Sprintf("%s:%d/%s", e.Source, e.PermitLimit, e.Window)
}

// Config contains configuration for the Resolver.
type Config struct {
	// ExemptAdmins bypasses rate limiting for admin users.
	ExemptAdmins bool

	// CacheTTL is the absolute lifetime of a cached settings row. The
	// sliding lifetime is half of it. Default: 5 minutes.
	CacheTTL time.Duration
}

// applyDefaults fills zero fields with defaults.
func (c *Config) applyDefaults() {
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
}

// tierResult builds a tier-sourced decision from catalog settings.
func tierResult(settings catalog.PolicySettings, bypass bool) *EffectiveLimits {
	return &EffectiveLimits{
		Bypass:      bypass,
		PermitLimit: settings.PermitLimit,
		Window:      settings.Window,
		Source:      SourceTier,
	}
}
