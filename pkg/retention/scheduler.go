package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs reconciliation ticks on a cron schedule instead of the
// Run loop's fixed interval. Use one or the other, not both.
type Scheduler struct {
	reconciler *Reconciler
	schedule   string
	cron       *cron.Cron
	mu         sync.Mutex
	logger     *slog.Logger
	running    bool
}

// NewScheduler creates a cron scheduler around a reconciler.
//
// Common cron expressions:
//   - "0 3 * * *"    - Daily at 3 AM
//   - "0 */6 * * *"  - Every 6 hours
//   - "0 0 * * 0"    - Weekly on Sunday at midnight
func NewScheduler(reconciler *Reconciler, schedule string) *Scheduler {
	return &Scheduler{
		reconciler: reconciler,
		schedule:   schedule,
		cron:       cron.New(),
		logger:     slog.Default().With("component", "retention.scheduler"),
	}
}

// Start begins scheduled reconciliation. An empty schedule is a no-op. The
// scheduler stops itself when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("Cleanup schedule not configured, skipping scheduler")
		return nil
	}
	if !s.reconciler.config.Enabled {
		s.logger.Info("Retention cleanup disabled, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.runTick(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("Retention scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) runTick(ctx context.Context) {
	result, err := s.reconciler.TickNow(ctx)
	if err != nil {
		if canceled(err) {
			return
		}
		s.reconciler.metrics.RecordTickError()
		s.logger.Error("Scheduled retention tick failed", "error", err)
		return
	}

	s.logger.Info("Scheduled retention tick completed",
		"completed_removed", result.CompletedRemoved,
		"failed_removed", result.FailedRemoved,
		"blobs_deleted", result.BlobsDeleted,
		"blob_failures", result.BlobFailures)
}

// Stop stops the scheduler and waits for a running tick to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done() // wait for a running tick to finish
		s.running = false
		s.logger.Info("Retention scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled tick time, or nil when nothing is
// scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
