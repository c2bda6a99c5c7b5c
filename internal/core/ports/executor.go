package ports

import (
	"context"

	"go.trai.ch/ignite/internal/core/domain"
)

// Executor defines the interface for executing commands.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Run executes the command's shell line with its environment and waits for it to exit.
	//
	// It returns the exit code. A non-nil error means the process could not be run
	// to completion, in which case the exit code is -1.
	Run(ctx context.Context, cmd *domain.Command) (int, error)
}
