package retention

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"docforge-hq/warden/pkg/blob"
	"docforge-hq/warden/pkg/jobs"
)

// Config contains configuration for the retention reconciler.
type Config struct {
	// Enabled turns cleanup on. When false, Run exits immediately.
	Enabled bool

	// CompletedRetentionDays is how long completed jobs are kept.
	// Default: 30
	CompletedRetentionDays int

	// FailedRetentionDays is how long failed jobs are kept.
	// Default: 7
	FailedRetentionDays int

	// BatchSize caps the rows removed per tick per status.
	// Default: 100
	BatchSize int

	// RunInterval is the sleep between ticks.
	// Default: 60 minutes
	RunInterval time.Duration

	// DryRun logs what a tick would remove without removing anything.
	DryRun bool
}

// DefaultConfig returns the default reconciler configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:                true,
		CompletedRetentionDays: 30,
		FailedRetentionDays:    7,
		BatchSize:              100,
		RunInterval:            60 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	if c.CompletedRetentionDays <= 0 {
		c.CompletedRetentionDays = 30
	}
	if c.FailedRetentionDays <= 0 {
		c.FailedRetentionDays = 7
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.RunInterval <= 0 {
		c.RunInterval = 60 * time.Minute
	}
	return c
}

// TickResult summarizes one reconciliation pass.
type TickResult struct {
	CompletedRemoved int
	FailedRemoved    int
	BlobsDeleted     int
	BlobFailures     int
}

// Reconciler deletes expired conversion jobs and their blob payloads on a
// timer. One instance runs per process.
type Reconciler struct {
	store   jobs.Store
	blobs   blob.Store
	config  Config
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewReconciler creates a reconciler over the given stores. metrics may be
// nil; logger nil means slog.Default.
func NewReconciler(store jobs.Store, blobs blob.Store, config Config, metrics *Metrics, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		store:   store,
		blobs:   blobs,
		config:  config.withDefaults(),
		metrics: metrics,
		logger:  logger.With("component", "retention"),
		now:     time.Now,
	}
}

// Run executes the tick/sleep loop until ctx is cancelled. When cleanup is
// disabled it returns immediately. A failed tick is logged and absorbed;
// only cancellation ends the loop, and it always ends it cleanly.
func (r *Reconciler) Run(ctx context.Context) error {
	if !r.config.Enabled {
		r.logger.Info("Retention cleanup disabled")
		return nil
	}

	r.logger.Info("Retention reconciler started",
		"completed_retention_days", r.config.CompletedRetentionDays,
		"failed_retention_days", r.config.FailedRetentionDays,
		"batch_size", r.config.BatchSize,
		"run_interval", r.config.RunInterval,
		"dry_run", r.config.DryRun)

	timer := time.NewTimer(0) // first tick immediately
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Retention reconciler stopped")
			return nil
		case <-timer.C:
		}

		if _, err := r.TickNow(ctx); err != nil {
			if canceled(err) {
				r.logger.Info("Retention reconciler stopped")
				return nil
			}
			// A bad tick must never terminate the loop
			r.metrics.RecordTickError()
			r.logger.Error("Retention tick failed", "error", err)
		}

		timer.Reset(r.config.RunInterval)
	}
}

// TickNow runs a single reconciliation pass immediately. It is the loop
// body of Run and is also exposed for operational triggering.
func (r *Reconciler) TickNow(ctx context.Context) (TickResult, error) {
	start := r.now()
	result := TickResult{}

	completedCutoff := start.AddDate(0, 0, -r.config.CompletedRetentionDays)
	failedCutoff := start.AddDate(0, 0, -r.config.FailedRetentionDays)

	completed, err := r.store.QueryExpired(ctx, jobs.StatusCompleted, completedCutoff, r.config.BatchSize)
	if err != nil {
		return result, err
	}

	// Payloads go first; a row removed before its blob would orphan the
	// blob invisibly, so the delete is attempted while the row still
	// names the key. Failures are tolerated and logged.
	for _, job := range completed {
		if job.StorageLocation != jobs.LocationCloudStorage || job.CloudStorageKey == "" {
			continue
		}
		if r.config.DryRun {
			r.logger.Info("Would delete blob", "job_id", job.ID, "key", job.CloudStorageKey)
			continue
		}
		if err := r.blobs.Delete(ctx, job.CloudStorageKey); err != nil {
			if canceled(err) {
				return result, err
			}
			result.BlobFailures++
			r.logger.Warn("Blob delete failed, removing job row anyway",
				"job_id", job.ID,
				"key", job.CloudStorageKey,
				"error", err)
			continue
		}
		result.BlobsDeleted++
	}

	// Failed jobs never produced external output, so no blob step
	failed, err := r.store.QueryExpired(ctx, jobs.StatusFailed, failedCutoff, r.config.BatchSize)
	if err != nil {
		return result, err
	}

	toRemove := make([]*jobs.ConversionJob, 0, len(completed)+len(failed))
	toRemove = append(toRemove, completed...)
	toRemove = append(toRemove, failed...)

	if r.config.DryRun {
		r.logger.Info("Dry run, no rows removed",
			"completed_expired", len(completed),
			"failed_expired", len(failed))
		return result, nil
	}

	if len(toRemove) > 0 {
		if err := r.store.RemoveRange(ctx, toRemove); err != nil {
			return result, err
		}
	}
	result.CompletedRemoved = len(completed)
	result.FailedRemoved = len(failed)

	r.metrics.RecordTick(result, r.now().Sub(start).Seconds())
	r.logger.Info("Retention tick completed",
		"completed_removed", result.CompletedRemoved,
		"failed_removed", result.FailedRemoved,
		"blobs_deleted", result.BlobsDeleted,
		"blob_failures", result.BlobFailures)
	return result, nil
}

func canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
