package jobs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*ConversionJob
}

// NewMemoryStore creates an empty in-memory job store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*ConversionJob),
	}
}

// Add persists a new job.
func (s *MemoryStore) Add(ctx context.Context, job *ConversionJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job.Clone()
	return nil
}

// GetByID returns a job by id, or (nil, nil) when absent.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*ConversionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	return job.Clone(), nil
}

// QueryExpired returns up to limit jobs in the given status whose
// CompletedAt is older than cutoff, oldest first.
func (s *MemoryStore) QueryExpired(ctx context.Context, status Status, cutoff time.Time, limit int) ([]*ConversionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []*ConversionJob{}
	for _, job := range s.jobs {
		if job.Status != status || job.CompletedAt == nil {
			continue
		}
		if job.CompletedAt.Before(cutoff) {
			matched = append(matched, job.Clone())
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CompletedAt.Before(*matched[j].CompletedAt)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// RemoveRange deletes the given jobs.
func (s *MemoryStore) RemoveRange(ctx context.Context, toRemove []*ConversionJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range toRemove {
		delete(s.jobs, job.ID)
	}
	return nil
}

// Count returns the total number of jobs.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs), nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
