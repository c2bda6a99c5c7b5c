package registry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/ignite/internal/adapters/coordination"
	"go.trai.ch/ignite/internal/adapters/logger"
	"go.trai.ch/ignite/internal/core/ports"
)

// NodeID is the unique identifier for the group registry Graft node.
const NodeID graft.ID = "engine.registry"

func init() {
	graft.Register(graft.Node[ports.GroupRegistry]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{coordination.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.GroupRegistry, error) {
			store, err := graft.Dep[ports.CoordinationStore](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(store, log), nil
		},
	})
}
