package ratelimit

import "sync"

// userLocks hands out one mutex per user ID, created on demand.
//
// The map grows with distinct users seen and is never pruned; the contained
// values are cheap, so unbounded growth is an operational note rather than a
// functional defect.
type userLocks struct {
	locks sync.Map // userID -> *sync.Mutex
}

// get returns the mutex for a user, creating it if needed.
func (l *userLocks) get(userID string) *sync.Mutex {
	if mu, ok := l.locks.Load(userID); ok {
		return mu.(*sync.Mutex)
	}
	mu, _ := l.locks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// size returns the number of lock handles. Useful for tests.
func (l *userLocks) size() int {
	n := 0
	l.locks.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
