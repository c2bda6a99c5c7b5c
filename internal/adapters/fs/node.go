package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/ignite/internal/adapters/logger"
	"go.trai.ch/ignite/internal/adapters/settings"
	"go.trai.ch/ignite/internal/core/domain"
	"go.trai.ch/ignite/internal/core/ports"
)

// InstallerNodeID is the unique identifier for the installer Graft node.
const InstallerNodeID graft.ID = "adapter.fs.installer"

func init() {
	graft.Register(graft.Node[ports.Installer]{
		ID:        InstallerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{settings.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.Installer, error) {
			cfg, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewInstaller(log, cfg.Privileged), nil
		},
	})
}
