// Package ports defines the core interfaces for the application.
package ports

import "context"

// CoordinationStore is the hierarchical store every instance of a deployment shares.
// Paths are slash separated and relative to the deployment root.
// Transport failures are reported wrapped in domain.ErrStoreUnavailable.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type CoordinationStore interface {
	// Exists reports whether path holds a value or has children.
	Exists(ctx context.Context, path string) (bool, error)

	// Get returns the value at path and whether it exists.
	Get(ctx context.Context, path string) ([]byte, bool, error)

	// Set writes value at path, creating intermediate segments as needed.
	Set(ctx context.Context, path string, value []byte) error

	// Update atomically replaces the value at path with the one fn derives from
	// the current value. fn may run more than once if a concurrent writer gets in
	// between; returning false leaves path untouched.
	Update(ctx context.Context, path string, fn func(current []byte, exists bool) ([]byte, bool)) error

	// Delete removes path, and its descendants when recursive is set.
	Delete(ctx context.Context, path string, recursive bool) error

	// Children lists the immediate child names of path in sorted order.
	// A missing path yields an empty list.
	Children(ctx context.Context, path string) ([]string, error)

	// CreateEphemeral atomically creates path bound to this instance's session.
	// It returns domain.ErrNodeExists if the node is already present.
	CreateEphemeral(ctx context.Context, path string, value []byte) error

	// WithLock runs fn while holding an exclusive lock scoped to path.
	// The lock is released on every exit path, including a panic in fn.
	WithLock(ctx context.Context, path string, fn func(context.Context) error) error

	// Lost delivers an error once the session can no longer be kept alive.
	// Ephemeral nodes are gone by then and the instance must stop.
	Lost() <-chan error

	// Close ends the session. Ephemeral nodes created through it disappear.
	Close() error
}
