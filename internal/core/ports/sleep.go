package ports

import (
	"context"
	"time"
)

// SleepFunc pauses for d or until ctx is done, returning ctx's error in the latter case.
// Engines take one so tests can replace real waiting.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the SleepFunc backed by a real timer.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}
