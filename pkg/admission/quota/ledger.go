package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"docforge-hq/warden/pkg/admission/catalog"
	"docforge-hq/warden/pkg/admission/storage"
	"docforge-hq/warden/pkg/users"
)

// Limits is a pair of monthly allowances.
type Limits struct {
	Conversions int
	Bytes       int64
}

// defaultTierLimits provides the monthly allowances snapshotted into new
// quota rows when the configuration does not override them.
var defaultTierLimits = map[catalog.Tier]Limits{
	catalog.TierFree:      {Conversions: 100, Bytes: 512 << 20},
	catalog.TierPremium:   {Conversions: 1000, Bytes: 10 << 30},
	catalog.TierUnlimited: {Conversions: 100000, Bytes: 1 << 40},
}

// Config controls the ledger's behavior.
type Config struct {
	// Enabled turns quota enforcement on. When false, Check always allows
	// and Record is a no-op.
	Enabled bool

	// ExemptAdmins skips the quota check entirely for admin users. This is
	// evaluated independently of the rate limiter's admin exemption.
	ExemptAdmins bool

	// AdminLimits, when set, replaces the tier allowance for admin users at
	// row-creation time. Admins still get checked unless ExemptAdmins is on.
	AdminLimits *Limits

	// TierLimits overrides the built-in per-tier allowances. Missing tiers
	// fall back to the defaults.
	TierLimits map[catalog.Tier]Limits
}

func (c Config) limitsForTier(tier catalog.Tier) Limits {
	if limits, ok := c.TierLimits[tier]; ok {
		return limits
	}
	if limits, ok := defaultTierLimits[tier]; ok {
		return limits
	}
	return defaultTierLimits[catalog.TierFree]
}

// Ledger tracks and enforces monthly usage quotas. It is safe for concurrent
// use, but gives no atomicity guarantee across concurrent Check and Record
// calls for the same user.
type Ledger struct {
	users    users.Directory
	settings storage.SettingsStore
	store    storage.QuotaStore
	config   Config
	logger   *slog.Logger
	now      func() time.Time
}

// NewLedger creates a quota ledger backed by the given stores. The settings
// store supplies the tier snapshotted into new monthly rows; a user with no
// settings row counts as tier free.
func NewLedger(directory users.Directory, settings storage.SettingsStore, store storage.QuotaStore, config Config, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		users:    directory,
		settings: settings,
		store:    store,
		config:   config,
		logger:   logger.With("component", "admission.quota"),
		now:      time.Now,
	}
}

// Check verifies the user's current-month usage against its limits.
// Conversions are checked before bytes, and the first exceeded counter is
// reported as an ExceededError. When quotas are disabled, or the user is an
// exempt admin, Check allows without touching storage and returns no row.
func (l *Ledger) Check(ctx context.Context, userID string) (*storage.UsageQuota, error) {
	if !l.config.Enabled {
		return nil, nil
	}
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}

	if l.config.ExemptAdmins {
		admin, err := l.isAdmin(ctx, userID)
		if err != nil {
			return nil, err
		}
		if admin {
			l.logger.Debug("Quota check bypassed for admin", "user_id", userID)
			return nil, nil
		}
	}

	row, err := l.currentRow(ctx, userID)
	if err != nil {
		return nil, err
	}

	if row.ConversionsExceeded() {
		return row, &ExceededError{
			Resource: ResourceConversions,
			Used:     int64(row.ConversionsUsed),
			Limit:    int64(row.ConversionsLimit),
		}
	}
	if row.BytesExceeded() {
		return row, &ExceededError{
			Resource: ResourceBytes,
			Used:     row.BytesProcessed,
			Limit:    row.BytesLimit,
		}
	}
	return row, nil
}

// Record adds one conversion and the given byte count to the current month's
// row, creating it if needed. It is a no-op when quotas are disabled. Record
// never enforces limits; enforcement belongs to Check.
func (l *Ledger) Record(ctx context.Context, userID string, bytes int64) error {
	if !l.config.Enabled {
		return nil
	}
	if userID == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	if bytes < 0 {
		return fmt.Errorf("byte count must not be negative, got %d", bytes)
	}

	row, err := l.currentRow(ctx, userID)
	if err != nil {
		return err
	}

	row.ConversionsUsed++
	row.BytesProcessed += bytes
	row.UpdatedAt = l.now().UTC()
	if err := l.store.Update(ctx, row); err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}

	l.logger.Debug("Usage recorded",
		"user_id", userID,
		"conversions_used", row.ConversionsUsed,
		"bytes_processed", row.BytesProcessed)
	return nil
}

// Current returns the user's current-month row, creating it if absent.
func (l *Ledger) Current(ctx context.Context, userID string) (*storage.UsageQuota, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}
	return l.currentRow(ctx, userID)
}

// History returns up to months of the user's most recent quota rows, newest
// first. Months with no activity have no row and are simply absent from the
// result.
func (l *Ledger) History(ctx context.Context, userID string, months int) ([]*storage.UsageQuota, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}
	if months <= 0 {
		return nil, fmt.Errorf("months must be positive, got %d", months)
	}

	rows, err := l.store.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quota history: %w", err)
	}
	if len(rows) > months {
		rows = rows[:months]
	}
	return rows, nil
}

// UpdateLimits overwrites the current month's limits for a user. Historical
// rows keep the limits they were created with.
func (l *Ledger) UpdateLimits(ctx context.Context, userID string, conversionsLimit int, bytesLimit int64) error {
	if userID == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	if conversionsLimit < 0 || bytesLimit < 0 {
		return fmt.Errorf("limits cannot be negative")
	}

	row, err := l.currentRow(ctx, userID)
	if err != nil {
		return err
	}

	row.ConversionsLimit = conversionsLimit
	row.BytesLimit = bytesLimit
	row.UpdatedAt = l.now().UTC()
	if err := l.store.Update(ctx, row); err != nil {
		return fmt.Errorf("failed to update quota limits: %w", err)
	}

	l.logger.Info("Quota limits updated",
		"user_id", userID,
		"conversions_limit", conversionsLimit,
		"bytes_limit", bytesLimit)
	return nil
}

// currentRow loads the current month's row, creating it with limits
// snapshotted from the tier in effect right now. A creation race is resolved
// by adopting the winner's row.
func (l *Ledger) currentRow(ctx context.Context, userID string) (*storage.UsageQuota, error) {
	now := l.now().UTC()
	year, month := now.Year(), int(now.Month())

	row, err := l.store.GetByUserAndMonth(ctx, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to load quota: %w", err)
	}
	if row != nil {
		return row, nil
	}

	limits, err := l.snapshotLimits(ctx, userID)
	if err != nil {
		return nil, err
	}

	row = &storage.UsageQuota{
		UserID:           userID,
		Year:             year,
		Month:            month,
		ConversionsLimit: limits.Conversions,
		BytesLimit:       limits.Bytes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := l.store.Add(ctx, row); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			row, err = l.store.GetByUserAndMonth(ctx, userID, year, month)
			if err != nil {
				return nil, fmt.Errorf("failed to load quota after creation race: %w", err)
			}
			if row == nil {
				return nil, fmt.Errorf("quota row vanished after creation race")
			}
			return row, nil
		}
		return nil, fmt.Errorf("failed to create quota: %w", err)
	}

	l.logger.Debug("Quota row created",
		"user_id", userID,
		"year", year,
		"month", month,
		"conversions_limit", row.ConversionsLimit,
		"bytes_limit", row.BytesLimit)
	return row, nil
}

// snapshotLimits computes the allowances for a new monthly row from the
// user's tier, or the admin amounts when configured and applicable.
func (l *Ledger) snapshotLimits(ctx context.Context, userID string) (Limits, error) {
	if l.config.AdminLimits != nil {
		admin, err := l.isAdmin(ctx, userID)
		if err != nil {
			return Limits{}, err
		}
		if admin {
			return *l.config.AdminLimits, nil
		}
	}

	tier := catalog.TierFree
	settings, err := l.settings.GetByUserID(ctx, userID)
	if err != nil {
		return Limits{}, fmt.Errorf("failed to load settings for quota snapshot: %w", err)
	}
	if settings != nil {
		tier = settings.Tier
	}
	return l.config.limitsForTier(tier), nil
}

// isAdmin resolves the user's admin flag. An unknown user is treated as a
// regular user rather than an error.
func (l *Ledger) isAdmin(ctx context.Context, userID string) (bool, error) {
	user, err := l.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load user: %w", err)
	}
	return user.IsAdmin, nil
}
