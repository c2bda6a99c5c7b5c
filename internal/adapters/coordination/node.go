package coordination

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/ignite/internal/adapters/logger"
	"go.trai.ch/ignite/internal/adapters/settings"
	"go.trai.ch/ignite/internal/core/domain"
	"go.trai.ch/ignite/internal/core/ports"
)

// NodeID is the unique identifier for the coordination store Graft node.
const NodeID graft.ID = "adapter.coordination_store"

func init() {
	graft.Register(graft.Node[ports.CoordinationStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{settings.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.CoordinationStore, error) {
			cfg, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return Open(cfg, log)
		},
	})
}
