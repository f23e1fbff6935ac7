package blob

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for tests. Failures can be injected
// per key to exercise the reconciler's best-effort delete path.
type MemoryStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	failures map[string]error
	deleted  []string
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects:  make(map[string][]byte),
		failures: make(map[string]error),
	}
}

// Put stores an object under key.
func (s *MemoryStore) Put(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
}

// FailDelete makes every Delete of key return err.
func (s *MemoryStore) FailDelete(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[key] = err
}

// Delete removes the object stored under key. Missing keys succeed.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.failures[key]; ok {
		return err
	}
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

// Exists reports whether key currently holds an object.
func (s *MemoryStore) Exists(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

// Deleted returns the keys successfully deleted, in order.
func (s *MemoryStore) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}
