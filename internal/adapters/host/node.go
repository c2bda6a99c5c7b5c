package host

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/ignite/internal/adapters/settings"
	"go.trai.ch/ignite/internal/core/domain"
	"go.trai.ch/ignite/internal/core/ports"
)

// NodeID is the unique identifier for the host resolver Graft node.
const NodeID graft.ID = "adapter.host"

func init() {
	graft.Register(graft.Node[ports.HostResolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{settings.NodeID},
		Run: func(ctx context.Context) (ports.HostResolver, error) {
			cfg, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewResolver(cfg.Hostname, InterfaceAddrs), nil
		},
	})
}
