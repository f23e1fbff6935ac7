package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"docforge-hq/warden/pkg/admission/catalog"
	"docforge-hq/warden/pkg/admission/storage"
	"docforge-hq/warden/pkg/users"
)

// Resolver computes the effective rate limits for (user, policy) pairs and
// owns the per-user rate-limit settings rows, including their cache.
//
// # Example
//
//	resolver := ratelimit.NewResolver(directory, store, catalog.Default(), ratelimit.Config{
//	    ExemptAdmins: true,
//	    CacheTTL:     5 * time.Minute,
//	}, nil)
//
//	limits, err := resolver.EffectiveLimits(ctx, userID, "conversion")
//	if limits.Bypass {
//	    // middleware skips rate limiting for this request
//	}
type Resolver struct {
	users  users.Directory
	store  storage.SettingsStore
	config Config

	// catalog is swapped wholesale on configuration reloads.
	catalog atomic.Pointer[catalog.Catalog]

	cache *settingsCache
	locks userLocks

	logger *slog.Logger
}

// NewResolver creates a resolver. A nil logger falls back to slog.Default.
func NewResolver(directory users.Directory, store storage.SettingsStore, cat *catalog.Catalog, config Config, logger *slog.Logger) *Resolver {
	config.applyDefaults()
	if cat == nil {
		cat = catalog.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Resolver{
		users:  directory,
		store:  store,
		config: config,
		cache:  newSettingsCache(config.CacheTTL),
		logger: logger.With("component", "admission.ratelimit"),
	}
	r.catalog.Store(cat)
	return r
}

// SetCatalog swaps in a rebuilt policy catalog and flushes the settings
// cache so the next resolution uses the new cells. Wired to configuration
// reloads; a nil catalog restores the compiled-in defaults.
func (r *Resolver) SetCatalog(cat *catalog.Catalog) {
	if cat == nil {
		cat = catalog.Default()
	}
	r.catalog.Store(cat)
	r.cache.flush()
	r.logger.Info("replaced policy catalog")
}

// EffectiveLimits resolves the admission decision for a user and policy name.
//
// Storage failures propagate unchanged; the request-handling layer decides
// how to surface them. A user the directory does not know resolves as an
// ordinary non-admin user.
func (r *Resolver) EffectiveLimits(ctx context.Context, userID string, policyName string) (*EffectiveLimits, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}

	// Admin bypass consults the User aggregate, not the settings row.
	if r.config.ExemptAdmins {
		user, err := r.users.GetByID(ctx, userID)
		if err != nil && !errors.Is(err, users.ErrNotFound) {
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		if user != nil && user.IsAdmin {
			return &EffectiveLimits{
				Bypass:      true,
				PermitLimit: math.MaxInt32,
				Window:      time.Hour,
				Source:      SourceAdmin,
			}, nil
		}
	}

	settings, err := r.cachedSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	policy := catalog.NormalizePolicy(policyName)

	// Override beats tier defaults, Unlimited included.
	if override, ok := settings.Override(policy); ok {
		return &EffectiveLimits{
			PermitLimit: override.PermitLimit,
			Window:      override.Window,
			Source:      SourceOverride,
		}, nil
	}

	nominal := r.catalog.Load().Lookup(settings.Tier, policy)
	if settings.Tier == catalog.TierUnlimited {
		// Nominal values are reported but not enforced.
		return tierResult(nominal, true), nil
	}

	return tierResult(nominal, false), nil
}

// GetOrCreateSettings returns the user's settings row, creating the default
// row (tier Free, no overrides) on first touch.
//
// The call is idempotent: when two concurrent callers race on creation, the
// loser's insert fails on the user-id key and it adopts the winner's row.
func (r *Resolver) GetOrCreateSettings(ctx context.Context, userID string) (*storage.RateLimitSettings, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}

	settings, err := r.store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		return settings, nil
	}

	settings = storage.NewRateLimitSettings(userID)
	err = r.store.Add(ctx, settings)
	if err == nil {
		r.logger.Debug("created rate limit settings", "user_id", userID)
		return settings, nil
	}
	if !errors.Is(err, storage.ErrDuplicate) {
		return nil, err
	}

	// Lost the creation race; adopt the winner's row.
	settings, err = r.store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, fmt.Errorf("settings row vanished after duplicate insert for user %s", userID)
	}
	return settings, nil
}

// UpdateTier sets the user's tier and invalidates the cached settings.
func (r *Resolver) UpdateTier(ctx context.Context, userID string, tier catalog.Tier) error {
	if !catalog.ValidTier(string(tier)) {
		return fmt.Errorf("invalid tier %q", tier)
	}

	settings, err := r.GetOrCreateSettings(ctx, userID)
	if err != nil {
		return err
	}

	settings.Tier = tier
	if err := r.store.Update(ctx, settings); err != nil {
		return err
	}

	// Evicting after the write leaves a narrow stale window; accepted.
	r.cache.evict(userID)

	r.logger.Info("updated user tier", "user_id", userID, "tier", tier)
	return nil
}

// SetPolicyOverride installs a complete override pair for a policy and
// invalidates the cached settings.
//
// Unlike resolution, mutation validates the policy name strictly: an
// unrecognized name returns ErrInvalidPolicy and storage is not touched.
func (r *Resolver) SetPolicyOverride(ctx context.Context, userID string, policyName string, override catalog.PolicySettings) error {
	if !catalog.ValidPolicy(policyName) {
		return fmt.Errorf("%w: %q", ErrInvalidPolicy, policyName)
	}

	settings, err := r.GetOrCreateSettings(ctx, userID)
	if err != nil {
		return err
	}

	settings.SetOverride(catalog.Policy(policyName), override)
	if err := r.store.Update(ctx, settings); err != nil {
		return err
	}

	r.cache.evict(userID)

	r.logger.Info("set policy override",
		"user_id", userID,
		"policy", policyName,
		"permit_limit", override.PermitLimit,
		"window", override.Window,
	)
	return nil
}

// ClearAllOverrides drops every override pair for the user and invalidates
// the cached settings.
func (r *Resolver) ClearAllOverrides(ctx context.Context, userID string) error {
	settings, err := r.GetOrCreateSettings(ctx, userID)
	if err != nil {
		return err
	}

	settings.ClearOverrides()
	if err := r.store.Update(ctx, settings); err != nil {
		return err
	}

	r.cache.evict(userID)

	r.logger.Info("cleared policy overrides", "user_id", userID)
	return nil
}

// FlushCache drops every cached settings row. Wired to configuration reloads
// so catalog changes take effect promptly.
func (r *Resolver) FlushCache() {
	r.cache.flush()
	r.logger.Debug("flushed settings cache")
}

// CacheSize returns the number of cached settings rows.
// This is useful for monitoring and testing.
func (r *Resolver) CacheSize() int {
	return r.cache.size()
}

// cachedSettings returns the user's settings, hitting the cache first.
//
// On a miss it acquires the user's lock, re-checks the cache (another request
// may have populated it while we waited), and only then queries storage.
// Requests for different users never contend on each other's locks.
func (r *Resolver) cachedSettings(ctx context.Context, userID string) (*storage.RateLimitSettings, error) {
	if settings, ok := r.cache.get(userID, time.Now()); ok {
		return settings, nil
	}

	mu := r.locks.get(userID)
	mu.Lock()
	defer mu.Unlock()

	if settings, ok := r.cache.get(userID, time.Now()); ok {
		return settings, nil
	}

	settings, err := r.GetOrCreateSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	r.cache.put(userID, settings, time.Now())
	return settings, nil
}
