package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"docforge-hq/warden/pkg/admission/catalog"
)

// SQLiteStore implements SettingsStore and QuotaStore using SQLite.
// It provides durable storage for single-instance deployments.
//
// SQLiteStore uses a write-ahead log (WAL) for better concurrent performance
// and automatic checkpointing to balance write performance with durability.
type SQLiteStore struct {
	db               *sql.DB
	dbPath           string
	snapshotInterval time.Duration
	done             chan struct{}
	mu               sync.RWMutex
	closeOnce        sync.Once

	// preparedStatements contains pre-compiled SQL statements for performance
	getSettingsStmt    *sql.Stmt
	addSettingsStmt    *sql.Stmt
	updateSettingsStmt *sql.Stmt
	getQuotaStmt       *sql.Stmt
	listQuotaStmt      *sql.Stmt
	addQuotaStmt       *sql.Stmt
	updateQuotaStmt    *sql.Stmt
}

// SQLiteStoreConfig configures the SQLite store.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// SnapshotInterval is how often to checkpoint the WAL.
	// Default: 5 minutes
	SnapshotInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore creates a new SQLite store with default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{
		DBPath:           dbPath,
		SnapshotInterval: 5 * time.Minute,
		BusyTimeout:      5 * time.Second,
	})
}

// NewSQLiteStoreWithConfig creates a new SQLite store with custom configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.SnapshotInterval == 0 {
		cfg.SnapshotInterval = 5 * time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	// Open database with WAL mode and busy timeout
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{
		db:               db,
		dbPath:           cfg.DBPath,
		snapshotInterval: cfg.SnapshotInterval,
		done:             make(chan struct{}),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	// Start background checkpoint goroutine
	go store.checkpointLoop()

	return store, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rate_limit_settings (
		user_id TEXT NOT NULL PRIMARY KEY,
		tier TEXT NOT NULL,
		standard_permit_limit INTEGER,
		standard_window_minutes INTEGER,
		conversion_permit_limit INTEGER,
		conversion_window_minutes INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS usage_quotas (
		user_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		conversions_used INTEGER NOT NULL,
		conversions_limit INTEGER NOT NULL,
		bytes_processed INTEGER NOT NULL,
		bytes_limit INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, year, month)
	);

	CREATE INDEX IF NOT EXISTS idx_usage_quotas_user ON usage_quotas(user_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getSettingsStmt, err = s.db.Prepare(`
		SELECT user_id, tier,
		       standard_permit_limit, standard_window_minutes,
		       conversion_permit_limit, conversion_window_minutes,
		       created_at, updated_at
		FROM rate_limit_settings
		WHERE user_id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare settings get statement: %w", err)
	}

	s.addSettingsStmt, err = s.db.Prepare(`
		INSERT INTO rate_limit_settings (
			user_id, tier,
			standard_permit_limit, standard_window_minutes,
			conversion_permit_limit, conversion_window_minutes,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare settings add statement: %w", err)
	}

	s.updateSettingsStmt, err = s.db.Prepare(`
		UPDATE rate_limit_settings SET
			tier = ?,
			standard_permit_limit = ?, standard_window_minutes = ?,
			conversion_permit_limit = ?, conversion_window_minutes = ?,
			updated_at = ?
		WHERE user_id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare settings update statement: %w", err)
	}

	s.getQuotaStmt, err = s.db.Prepare(`
		SELECT user_id, year, month,
		       conversions_used, conversions_limit,
		       bytes_processed, bytes_limit,
		       created_at, updated_at
		FROM usage_quotas
		WHERE user_id = ? AND year = ? AND month = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare quota get statement: %w", err)
	}

	s.listQuotaStmt, err = s.db.Prepare(`
		SELECT user_id, year, month,
		       conversions_used, conversions_limit,
		       bytes_processed, bytes_limit,
		       created_at, updated_at
		FROM usage_quotas
		WHERE user_id = ?
		ORDER BY year DESC, month DESC
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare quota list statement: %w", err)
	}

	s.addQuotaStmt, err = s.db.Prepare(`
		INSERT INTO usage_quotas (
			user_id, year, month,
			conversions_used, conversions_limit,
			bytes_processed, bytes_limit,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare quota add statement: %w", err)
	}

	s.updateQuotaStmt, err = s.db.Prepare(`
		UPDATE usage_quotas SET
			conversions_used = ?, conversions_limit = ?,
			bytes_processed = ?, bytes_limit = ?,
			updated_at = ?
		WHERE user_id = ? AND year = ? AND month = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare quota update statement: %w", err)
	}

	return nil
}

// GetByUserID returns the user's settings row, or (nil, nil) if absent.
func (s *SQLiteStore) GetByUserID(ctx context.Context, userID string) (*RateLimitSettings, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		tier                  string
		stdLimit, stdWindow   sql.NullInt64
		convLimit, convWindow sql.NullInt64
		createdAt, updatedAt  int64
	)

	err := s.getSettingsStmt.QueryRowContext(ctx, userID).Scan(
		&userID, &tier,
		&stdLimit, &stdWindow,
		&convLimit, &convWindow,
		&createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	settings := &RateLimitSettings{
		UserID:    userID,
		Tier:      catalog.Tier(tier),
		Overrides: make(map[catalog.Policy]catalog.PolicySettings),
		CreatedAt: time.Unix(createdAt, 0),
		UpdatedAt: time.Unix(updatedAt, 0),
	}

	// An override only counts when both columns of its pair are set. A
	// half-set pair (legacy data or manual edits) is ignored rather than
	// surfaced as a broken override.
	if stdLimit.Valid && stdWindow.Valid {
		settings.Overrides[catalog.PolicyStandard] = catalog.PolicySettings{
			PermitLimit: int(stdLimit.Int64),
			Window:      time.Duration(stdWindow.Int64) * time.Minute,
		}
	}
	if convLimit.Valid && convWindow.Valid {
		settings.Overrides[catalog.PolicyConversion] = catalog.PolicySettings{
			PermitLimit: int(convLimit.Int64),
			Window:      time.Duration(convWindow.Int64) * time.Minute,
		}
	}

	return settings, nil
}

// Add inserts a new settings row. Returns ErrDuplicate if the user already
// has one.
func (s *SQLiteStore) Add(ctx context.Context, settings *RateLimitSettings) error {
	if settings == nil {
		return fmt.Errorf("settings cannot be nil")
	}
	if settings.UserID == "" {
		return fmt.Errorf("user id cannot be empty")
	}

	now := time.Now()
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = now
	}
	settings.UpdatedAt = now

	stdLimit, stdWindow := overrideColumns(settings, catalog.PolicyStandard)
	convLimit, convWindow := overrideColumns(settings, catalog.PolicyConversion)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.addSettingsStmt.ExecContext(ctx,
		settings.UserID, string(settings.Tier),
		stdLimit, stdWindow,
		convLimit, convWindow,
		settings.CreatedAt.Unix(), settings.UpdatedAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to add settings: %w", err)
	}

	return nil
}

// Update persists changes to an existing settings row.
func (s *SQLiteStore) Update(ctx context.Context, settings *RateLimitSettings) error {
	if settings == nil {
		return fmt.Errorf("settings cannot be nil")
	}
	if settings.UserID == "" {
		return fmt.Errorf("user id cannot be empty")
	}

	settings.UpdatedAt = time.Now()

	stdLimit, stdWindow := overrideColumns(settings, catalog.PolicyStandard)
	convLimit, convWindow := overrideColumns(settings, catalog.PolicyConversion)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.updateSettingsStmt.ExecContext(ctx,
		string(settings.Tier),
		stdLimit, stdWindow,
		convLimit, convWindow,
		settings.UpdatedAt.Unix(),
		settings.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	return nil
}

// GetByUserAndMonth returns one month's quota row, or (nil, nil) if absent.
func (s *SQLiteStore) GetByUserAndMonth(ctx context.Context, userID string, year, month int) (*UsageQuota, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	quota, err := scanQuota(s.getQuotaStmt.QueryRowContext(ctx, userID, year, month))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load quota: %w", err)
	}

	return quota, nil
}

// GetByUser returns all of a user's quota rows ordered by (year, month)
// descending.
func (s *SQLiteStore) GetByUser(ctx context.Context, userID string) ([]*UsageQuota, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.listQuotaStmt.QueryContext(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotas: %w", err)
	}
	defer rows.Close()

	var quotas []*UsageQuota
	for rows.Next() {
		quota, err := scanQuota(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quota row: %w", err)
		}
		quotas = append(quotas, quota)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quota rows: %w", err)
	}

	return quotas, nil
}

// AddQuota inserts a new quota row. Returns ErrDuplicate if the period
// already has one.
func (s *SQLiteStore) AddQuota(ctx context.Context, quota *UsageQuota) error {
	if quota == nil {
		return fmt.Errorf("quota cannot be nil")
	}
	if quota.UserID == "" {
		return fmt.Errorf("user id cannot be empty")
	}

	now := time.Now()
	if quota.CreatedAt.IsZero() {
		quota.CreatedAt = now
	}
	quota.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.addQuotaStmt.ExecContext(ctx,
		quota.UserID, quota.Year, quota.Month,
		quota.ConversionsUsed, quota.ConversionsLimit,
		quota.BytesProcessed, quota.BytesLimit,
		quota.CreatedAt.Unix(), quota.UpdatedAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to add quota: %w", err)
	}

	return nil
}

// UpdateQuota persists changes to an existing quota row.
func (s *SQLiteStore) UpdateQuota(ctx context.Context, quota *UsageQuota) error {
	if quota == nil {
		return fmt.Errorf("quota cannot be nil")
	}
	if quota.UserID == "" {
		return fmt.Errorf("user id cannot be empty")
	}

	quota.UpdatedAt = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.updateQuotaStmt.ExecContext(ctx,
		quota.ConversionsUsed, quota.ConversionsLimit,
		quota.BytesProcessed, quota.BytesLimit,
		quota.UpdatedAt.Unix(),
		quota.UserID, quota.Year, quota.Month,
	)
	if err != nil {
		return fmt.Errorf("failed to update quota: %w", err)
	}

	return nil
}

// Close releases any resources held by the store.
// Close is idempotent and safe to call multiple times.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)

		for _, stmt := range []*sql.Stmt{
			s.getSettingsStmt, s.addSettingsStmt, s.updateSettingsStmt,
			s.getQuotaStmt, s.listQuotaStmt, s.addQuotaStmt, s.updateQuotaStmt,
		} {
			if stmt != nil {
				stmt.Close()
			}
		}

		if s.db != nil {
			// Run final checkpoint
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints.
func (s *SQLiteStore) checkpointLoop() {
	ticker := time.NewTicker(s.snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}

// scanner abstracts *sql.Row and *sql.Rows for scanQuota.
type scanner interface {
	Scan(dest ...any) error
}

// scanQuota reads one usage_quotas row.
func scanQuota(row scanner) (*UsageQuota, error) {
	var (
		quota                UsageQuota
		createdAt, updatedAt int64
	)

	err := row.Scan(
		&quota.UserID, &quota.Year, &quota.Month,
		&quota.ConversionsUsed, &quota.ConversionsLimit,
		&quota.BytesProcessed, &quota.BytesLimit,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	quota.CreatedAt = time.Unix(createdAt, 0)
	quota.UpdatedAt = time.Unix(updatedAt, 0)
	return &quota, nil
}

// overrideColumns maps an override pair to its two nullable columns.
// Both columns are set or both are NULL; a half-set pair never reaches disk.
func overrideColumns(settings *RateLimitSettings, policy catalog.Policy) (limit, window sql.NullInt64) {
	ov, ok := settings.Override(policy)
	if !ok {
		return sql.NullInt64{}, sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(ov.PermitLimit), Valid: true},
		sql.NullInt64{Int64: int64(ov.Window / time.Minute), Valid: true}
}

// isUniqueViolation reports whether err is a primary-key/unique violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Settings returns the store's SettingsStore view.
func (s *SQLiteStore) Settings() SettingsStore { return s }

// Quotas returns the store's QuotaStore view. Both views share the same
// database handle; Close on the SQLiteStore closes both.
func (s *SQLiteStore) Quotas() QuotaStore { return quotaView{s} }

// quotaView adapts SQLiteStore's quota methods to the QuotaStore interface,
// whose Add/Update names collide with the settings methods.
type quotaView struct {
	s *SQLiteStore
}

func (v quotaView) GetByUserAndMonth(ctx context.Context, userID string, year, month int) (*UsageQuota, error) {
	return v.s.GetByUserAndMonth(ctx, userID, year, month)
}

func (v quotaView) GetByUser(ctx context.Context, userID string) ([]*UsageQuota, error) {
	return v.s.GetByUser(ctx, userID)
}

func (v quotaView) Add(ctx context.Context, quota *UsageQuota) error {
	return v.s.AddQuota(ctx, quota)
}

func (v quotaView) Update(ctx context.Context, quota *UsageQuota) error {
	return v.s.UpdateQuota(ctx, quota)
}
