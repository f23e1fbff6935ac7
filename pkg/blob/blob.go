package blob

import "context"

// Store is the minimal contract the reconciler needs from the object store.
type Store interface {
	// Delete removes the object stored under key. Deleting a key that does
	// not exist is not an error.
	Delete(ctx context.Context, key string) error
}
