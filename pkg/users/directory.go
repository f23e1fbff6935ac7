package users

import (
	"context"
	"sync"
)

// StaticDirectory is a Directory backed by a fixed set of admin IDs.
// Every ID resolves to a user; IDs in the admin set resolve with IsAdmin=true.
//
// This adapter exists for deployments where the account service is fronted by
// an authenticating proxy and only the admin set needs to be known locally.
type StaticDirectory struct {
	admins map[string]struct{}
}

// NewStaticDirectory creates a directory that marks the given IDs as admins.
func NewStaticDirectory(adminIDs []string) *StaticDirectory {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &StaticDirectory{admins: admins}
}

// GetByID resolves the user. StaticDirectory never returns ErrNotFound:
// unknown IDs are treated as ordinary non-admin users.
func (d *StaticDirectory) GetByID(ctx context.Context, id string) (*User, error) {
	_, isAdmin := d.admins[id]
	return &User{ID: id, IsAdmin: isAdmin}, nil
}

// MemoryDirectory is a mutable in-memory Directory for tests.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{users: make(map[string]*User)}
}

// Put adds or replaces a user.
func (d *MemoryDirectory) Put(u *User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

// GetByID returns the user with the given ID, or ErrNotFound.
func (d *MemoryDirectory) GetByID(ctx context.Context, id string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}
