package ports

import (
	"context"

	"go.trai.ch/ignite/internal/core/domain"
)

// Installer places rendered configuration on the host.
//
//go:generate mockgen -source=installer.go -destination=mocks/mock_installer.go -package=mocks
type Installer interface {
	// Install writes content to the file's destination with its owner and mode.
	// It reports false, and does nothing, when the destination already holds identical bytes.
	Install(ctx context.Context, file domain.FileSpec, content []byte) (bool, error)
}
