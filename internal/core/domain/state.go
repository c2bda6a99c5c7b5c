package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// TaskState is the persisted state of a command at its register paths.
type TaskState string

const (
	// StateWaiting means the command is queued behind unmet prerequisites.
	StateWaiting TaskState = "WAITING"
	// StateRunning means the command body is executing.
	StateRunning TaskState = "RUNNING"
	// StateRetry means the last attempt failed and another is scheduled.
	StateRetry TaskState = "RETRY"
	// StateError means the command failed with no retries left.
	StateError TaskState = "ERROR"
	// StateDone means the command completed successfully.
	StateDone TaskState = "DONE"
)

// ParseTaskState parses a stored state value.
func ParseTaskState(v []byte) (TaskState, error) {
	s := TaskState(strings.TrimSpace(string(v)))
	switch s {
	case StateWaiting, StateRunning, StateRetry, StateError, StateDone:
		return s, nil
	default:
		return "", zerr.With(ErrInvalidState, "value", string(v))
	}
}

// IsDone reports whether a stored value holds DONE.
// Unknown values are treated as not done.
func IsDone(v []byte) bool {
	s, err := ParseTaskState(v)
	return err == nil && s == StateDone
}

func (s TaskState) String() string {
	return string(s)
}
