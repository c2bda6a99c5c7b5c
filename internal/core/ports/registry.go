package ports

import (
	"context"

	"go.trai.ch/ignite/internal/core/domain"
)

// GroupRegistry publishes instance membership and reads back the inventory.
//
//go:generate mockgen -source=registry.go -destination=mocks/mock_registry.go -package=mocks
type GroupRegistry interface {
	// Register joins group under the smallest free ordinal and returns it.
	Register(ctx context.Context, group string, member domain.Member) (int, error)

	// ListGroups folds the members of every group into an inventory.
	ListGroups(ctx context.Context) (domain.Inventory, error)
}
