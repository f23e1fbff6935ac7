package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversion_jobs (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    source_format TEXT NOT NULL,
    target_format TEXT NOT NULL,
    status TEXT NOT NULL,
    storage_location TEXT NOT NULL,
    cloud_storage_key TEXT,
    size_bytes INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    completed_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_jobs_status_completed
    ON conversion_jobs(status, completed_at);
CREATE INDEX IF NOT EXISTS idx_jobs_user
    ON conversion_jobs(user_id);
`

// SQLiteConfig contains configuration for the SQLite job store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/jobs.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements Store on SQLite.
type SQLiteStore struct {
	db        *sql.DB
	config    *SQLiteConfig
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewSQLiteStore opens the job database, creating the schema if needed.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "jobs.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open job database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStore{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Job store initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Add persists a new job.
func (s *SQLiteStore) Add(ctx context.Context, job *ConversionJob) error {
	query := `
		INSERT INTO conversion_jobs (
			id, user_id, source_format, target_format, status,
			storage_location, cloud_storage_key, size_bytes,
			created_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var cloudKey interface{}
	if job.CloudStorageKey != "" {
		cloudKey = job.CloudStorageKey
	}
	var completedAt interface{}
	if job.CompletedAt != nil {
		completedAt = job.CompletedAt.UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		job.ID, job.UserID, job.SourceFormat, job.TargetFormat, string(job.Status),
		string(job.StorageLocation), cloudKey, job.SizeBytes,
		job.CreatedAt.UTC(), completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}
	return nil
}

// GetByID returns a job by id, or (nil, nil) when absent.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*ConversionJob, error) {
	query := `
		SELECT id, user_id, source_format, target_format, status,
		       storage_location, cloud_storage_key, size_bytes,
		       created_at, completed_at
		FROM conversion_jobs WHERE id = ?
	`

	job, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// QueryExpired returns up to limit jobs in the given status whose
// CompletedAt is older than cutoff, oldest first.
func (s *SQLiteStore) QueryExpired(ctx context.Context, status Status, cutoff time.Time, limit int) ([]*ConversionJob, error) {
	query := `
		SELECT id, user_id, source_format, target_format, status,
		       storage_location, cloud_storage_key, size_bytes,
		       created_at, completed_at
		FROM conversion_jobs
		WHERE status = ? AND completed_at IS NOT NULL AND completed_at < ?
		ORDER BY completed_at ASC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, string(status), cutoff.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired jobs: %w", err)
	}
	defer rows.Close()

	jobs := []*ConversionJob{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// RemoveRange deletes the given jobs in one statement.
func (s *SQLiteStore) RemoveRange(ctx context.Context, toRemove []*ConversionJob) error {
	if len(toRemove) == 0 {
		return nil
	}

	placeholders := make([]string, len(toRemove))
	args := make([]interface{}, len(toRemove))
	for i, job := range toRemove {
		placeholders[i] = "?"
		args[i] = job.ID
	}

	query := fmt.Sprintf("DELETE FROM conversion_jobs WHERE id IN (%s)",
		strings.Join(placeholders, ", "))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to remove jobs: %w", err)
	}

	removed, _ := result.RowsAffected()
	s.logger.Debug("Jobs removed", "requested", len(toRemove), "removed", removed)
	return nil
}

// Count returns the total number of jobs.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM conversion_jobs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}

// Close closes the database. Safe to call more than once.
func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.db.Close()
		s.logger.Info("Job store closed")
	})
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(scanner rowScanner) (*ConversionJob, error) {
	var (
		job         ConversionJob
		status      string
		location    string
		cloudKey    sql.NullString
		completedAt sql.NullTime
	)

	err := scanner.Scan(
		&job.ID, &job.UserID, &job.SourceFormat, &job.TargetFormat, &status,
		&location, &cloudKey, &job.SizeBytes,
		&job.CreatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Status = Status(status)
	job.StorageLocation = StorageLocation(location)
	if cloudKey.Valid {
		job.CloudStorageKey = cloudKey.String
	}
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		job.CompletedAt = &t
	}
	return &job, nil
}
