package users

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a user ID does not resolve to a known user.
var ErrNotFound = errors.New("user not found")

// User carries the slice of the platform's User aggregate that admission
// control consults. Everything else about the user lives elsewhere.
type User struct {
	// ID is the user's identity (opaque to this subsystem).
	ID string

	// IsAdmin marks platform administrators. Admins may bypass rate limits
	// and quota checks depending on governance configuration.
	IsAdmin bool
}

// Directory resolves user IDs to users.
// Implementations must be safe for concurrent use.
type Directory interface {
	// GetByID returns the user with the given ID.
	// Returns ErrNotFound if no such user exists.
	GetByID(ctx context.Context, id string) (*User, error)
}
