package ports

import (
	"context"

	"go.trai.ch/ignite/internal/core/domain"
)

// Provisioner renders and installs a role's configuration files.
//
//go:generate mockgen -source=provisioner.go -destination=mocks/mock_provisioner.go -package=mocks
type Provisioner interface {
	Provision(ctx context.Context, role string, files []domain.FileSpec) error
}
