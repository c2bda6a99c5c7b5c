package memstore

import "sync"

var (
	sharedOnce    sync.Once
	sharedBackend *Backend
)

// Shared returns the process-wide backend used when the store is set to "memory".
func Shared() *Backend {
	sharedOnce.Do(func() {
		sharedBackend = NewBackend()
	})
	return sharedBackend
}
