package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemorySettingsStore implements SettingsStore using in-memory storage.
// All data is lost when the process exits. It is the test twin of the SQLite
// store and is also usable for ephemeral deployments.
//
// MemorySettingsStore is thread-safe using sync.RWMutex.
type MemorySettingsStore struct {
	mu   sync.RWMutex
	rows map[string]*RateLimitSettings
}

// NewMemorySettingsStore creates an empty in-memory settings store.
func NewMemorySettingsStore() *MemorySettingsStore {
	return &MemorySettingsStore{rows: make(map[string]*RateLimitSettings)}
}

// GetByUserID returns the user's settings row, or (nil, nil) if absent.
func (m *MemorySettingsStore) GetByUserID(ctx context.Context, userID string) (*RateLimitSettings, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.rows[userID]
	if !ok {
		return nil, nil
	}
	return row.Clone(), nil
}

// Add inserts a new row. Returns ErrDuplicate if the user already has one.
func (m *MemorySettingsStore) Add(ctx context.Context, settings *RateLimitSettings) error {
	if settings == nil {
		return fmt.Errorf("settings cannot be nil")
	}
	if settings.UserID == "" {
		return fmt.Errorf("user id cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.rows[settings.UserID]; exists {
		return ErrDuplicate
	}

	now := time.Now()
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = now
	}
	settings.UpdatedAt = now
	m.rows[settings.UserID] = settings.Clone()
	return nil
}

// Update persists changes to an existing row.
func (m *MemorySettingsStore) Update(ctx context.Context, settings *RateLimitSettings) error {
	if settings == nil {
		return fmt.Errorf("settings cannot be nil")
	}
	if settings.UserID == "" {
		return fmt.Errorf("user id cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	settings.UpdatedAt = time.Now()
	m.rows[settings.UserID] = settings.Clone()
	return nil
}

// MemoryQuotaStore implements QuotaStore using in-memory storage.
// It is thread-safe and used by tests and ephemeral deployments.
type MemoryQuotaStore struct {
	mu   sync.RWMutex
	rows map[quotaKey]*UsageQuota
}

type quotaKey struct {
	userID string
	year   int
	month  int
}

// NewMemoryQuotaStore creates an empty in-memory quota store.
func NewMemoryQuotaStore() *MemoryQuotaStore {
	return &MemoryQuotaStore{rows: make(map[quotaKey]*UsageQuota)}
}

// GetByUserAndMonth returns one month's row, or (nil, nil) if absent.
func (m *MemoryQuotaStore) GetByUserAndMonth(ctx context.Context, userID string, year, month int) (*UsageQuota, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.rows[quotaKey{userID, year, month}]
	if !ok {
		return nil, nil
	}
	return row.Clone(), nil
}

// GetByUser returns all of a user's rows ordered by (year, month) descending.
func (m *MemoryQuotaStore) GetByUser(ctx context.Context, userID string) ([]*UsageQuota, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var quotas []*UsageQuota
	for key, row := range m.rows {
		if key.userID == userID {
			quotas = append(quotas, row.Clone())
		}
	}

	// Newest period first
	for i := 0; i < len(quotas)-1; i++ {
		for j := i + 1; j < len(quotas); j++ {
			if lessPeriod(quotas[i], quotas[j]) {
				quotas[i], quotas[j] = quotas[j], quotas[i]
			}
		}
	}

	return quotas, nil
}

// Add inserts a new row. Returns ErrDuplicate if the period already has one.
func (m *MemoryQuotaStore) Add(ctx context.Context, quota *UsageQuota) error {
	if quota == nil {
		return fmt.Errorf("quota cannot be nil")
	}
	if quota.UserID == "" {
		return fmt.Errorf("user id cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := quotaKey{quota.UserID, quota.Year, quota.Month}
	if _, exists := m.rows[key]; exists {
		return ErrDuplicate
	}

	now := time.Now()
	if quota.CreatedAt.IsZero() {
		quota.CreatedAt = now
	}
	quota.UpdatedAt = now
	m.rows[key] = quota.Clone()
	return nil
}

// Update persists changes to an existing row.
func (m *MemoryQuotaStore) Update(ctx context.Context, quota *UsageQuota) error {
	if quota == nil {
		return fmt.Errorf("quota cannot be nil")
	}
	if quota.UserID == "" {
		return fmt.Errorf("user id cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	quota.UpdatedAt = time.Now()
	m.rows[quotaKey{quota.UserID, quota.Year, quota.Month}] = quota.Clone()
	return nil
}

// Size returns the number of stored quota rows.
// This is useful for monitoring and testing.
func (m *MemoryQuotaStore) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

// lessPeriod reports whether a's period sorts before b's.
func lessPeriod(a, b *UsageQuota) bool {
	if a.Year != b.Year {
		return a.Year < b.Year
	}
	return a.Month < b.Month
}
