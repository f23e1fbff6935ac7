package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a conversion job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// StorageLocation says where a job's output payload lives.
type StorageLocation string

const (
	// LocationDatabase keeps the payload inline in the job row.
	LocationDatabase StorageLocation = "database"

	// LocationCloudStorage keeps the payload in the blob store under
	// CloudStorageKey.
	LocationCloudStorage StorageLocation = "cloud_storage"
)

// ConversionJob is one document conversion tracked by the service.
//
// Retention treats a job as expired once it is terminal (Completed or
// Failed) and its CompletedAt is older than the configured retention
// window.
type ConversionJob struct {
	ID              string
	UserID          string
	SourceFormat    string
	TargetFormat    string
	Status          Status
	StorageLocation StorageLocation

	// CloudStorageKey is set only when StorageLocation is CloudStorage.
	CloudStorageKey string

	// SizeBytes is the output payload size, zero until completion.
	SizeBytes int64

	CreatedAt time.Time

	// CompletedAt is set when the job reaches a terminal status.
	CompletedAt *time.Time
}

// NewConversionJob creates a pending job with a fresh id.
func NewConversionJob(userID, sourceFormat, targetFormat string) *ConversionJob {
	return &ConversionJob{
		ID:              uuid.New().String(),
		UserID:          userID,
		SourceFormat:    sourceFormat,
		TargetFormat:    targetFormat,
		Status:          StatusPending,
		StorageLocation: LocationDatabase,
		CreatedAt:       time.Now().UTC(),
	}
}

// Clone returns a deep copy of the job.
func (j *ConversionJob) Clone() *ConversionJob {
	clone := *j
	if j.CompletedAt != nil {
		completedAt := *j.CompletedAt
		clone.CompletedAt = &completedAt
	}
	return &clone
}

// Store is the persistence contract for conversion jobs.
type Store interface {
	// Add persists a new job.
	Add(ctx context.Context, job *ConversionJob) error

	// GetByID returns a job by id, or (nil, nil) when absent.
	GetByID(ctx context.Context, id string) (*ConversionJob, error)

	// QueryExpired returns up to limit jobs in the given status whose
	// CompletedAt is set and older than cutoff, oldest first.
	QueryExpired(ctx context.Context, status Status, cutoff time.Time, limit int) ([]*ConversionJob, error)

	// RemoveRange deletes the given jobs in one batch operation.
	RemoveRange(ctx context.Context, jobs []*ConversionJob) error

	// Count returns the total number of jobs in the store.
	Count(ctx context.Context) (int, error)

	// Close releases the store's resources.
	Close() error
}
