package storage

import (
	"context"
	"errors"
	"time"

	"docforge-hq/warden/pkg/admission/catalog"
)

// ErrDuplicate is returned by Add when a row with the same key already
// exists. Callers racing on lazy creation treat this as "someone else won"
// and re-read the winner's row.
var ErrDuplicate = errors.New("row already exists")

// RateLimitSettings is the per-user rate-limit record.
//
// An override is all-or-nothing: it exists in Overrides as a complete
// permit-limit/window pair or not at all. The half-set state the pair-of-
// columns schema could express is unrepresentable here; the store writes and
// clears both columns of a pair together.
type RateLimitSettings struct {
	// UserID identifies the user. The User aggregate is not owned here.
	UserID string

	// Tier is the user's service level.
	Tier catalog.Tier

	// Overrides replaces the tier's default settings per policy.
	Overrides map[catalog.Policy]catalog.PolicySettings

	// CreatedAt is when the row was first created.
	CreatedAt time.Time

	// UpdatedAt is when the row was last modified.
	UpdatedAt time.Time
}

// NewRateLimitSettings returns a fresh settings row with default tier Free
// and no overrides.
func NewRateLimitSettings(userID string) *RateLimitSettings {
	return &RateLimitSettings{
		UserID:    userID,
		Tier:      catalog.TierFree,
		Overrides: make(map[catalog.Policy]catalog.PolicySettings),
	}
}

// Override returns the active override for a policy, if any.
func (s *RateLimitSettings) Override(policy catalog.Policy) (catalog.PolicySettings, bool) {
	ov, ok := s.Overrides[policy]
	return ov, ok
}

// SetOverride installs a complete override pair for a policy.
func (s *RateLimitSettings) SetOverride(policy catalog.Policy, ov catalog.PolicySettings) {
	if s.Overrides == nil {
		s.Overrides = make(map[catalog.Policy]catalog.PolicySettings)
	}
	s.Overrides[policy] = ov
}

// ClearOverrides drops every override pair.
func (s *RateLimitSettings) ClearOverrides() {
	s.Overrides = make(map[catalog.Policy]catalog.PolicySettings)
}

// Clone returns a deep copy. Stores hand out clones so cached rows cannot be
// mutated behind the cache's back.
func (s *RateLimitSettings) Clone() *RateLimitSettings {
	clone := *s
	clone.Overrides = make(map[catalog.Policy]catalog.PolicySettings, len(s.Overrides))
	for policy, ov := range s.Overrides {
		clone.Overrides[policy] = ov
	}
	return &clone
}

// UsageQuota is one user's consumption ledger for one calendar month.
//
// Limits are snapshotted at row creation from the tier in effect at that
// moment; later tier changes only affect future months.
type UsageQuota struct {
	// UserID identifies the user.
	UserID string

	// Year and Month form the quota period key together with UserID.
	Year  int
	Month int

	// ConversionsUsed counts conversions performed this month.
	ConversionsUsed int

	// ConversionsLimit is the monthly conversion allowance.
	ConversionsLimit int

	// BytesProcessed sums input bytes processed this month.
	BytesProcessed int64

	// BytesLimit is the monthly byte allowance.
	BytesLimit int64

	// CreatedAt is when the row was first created.
	CreatedAt time.Time

	// UpdatedAt is when the row was last modified.
	UpdatedAt time.Time
}

// ConversionsExceeded reports whether the conversion allowance is exhausted.
func (q *UsageQuota) ConversionsExceeded() bool {
	return q.ConversionsUsed >= q.ConversionsLimit
}

// BytesExceeded reports whether the byte allowance is exhausted.
func (q *UsageQuota) BytesExceeded() bool {
	return q.BytesProcessed >= q.BytesLimit
}

// Clone returns a copy of the quota row.
func (q *UsageQuota) Clone() *UsageQuota {
	clone := *q
	return &clone
}

// SettingsStore persists RateLimitSettings rows keyed by user ID.
// Implementations must be thread-safe.
type SettingsStore interface {
	// GetByUserID returns the user's settings row, or (nil, nil) if absent.
	GetByUserID(ctx context.Context, userID string) (*RateLimitSettings, error)

	// Add inserts a new row. Returns ErrDuplicate if the user already has one.
	Add(ctx context.Context, settings *RateLimitSettings) error

	// Update persists changes to an existing row.
	Update(ctx context.Context, settings *RateLimitSettings) error
}

// QuotaStore persists UsageQuota rows keyed by (user, year, month).
// Implementations must be thread-safe.
type QuotaStore interface {
	// GetByUserAndMonth returns one month's row, or (nil, nil) if absent.
	GetByUserAndMonth(ctx context.Context, userID string, year, month int) (*UsageQuota, error)

	// GetByUser returns all of a user's rows ordered by (year, month)
	// descending. Months with no row are simply absent.
	GetByUser(ctx context.Context, userID string) ([]*UsageQuota, error)

	// Add inserts a new row. Returns ErrDuplicate if the period already has one.
	Add(ctx context.Context, quota *UsageQuota) error

	// Update persists changes to an existing row.
	Update(ctx context.Context, quota *UsageQuota) error
}
