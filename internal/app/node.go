package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/ignite/internal/adapters/config"       //nolint:depguard // Wired in app layer
	"go.trai.ch/ignite/internal/adapters/coordination" //nolint:depguard // Wired in app layer
	"go.trai.ch/ignite/internal/adapters/fs"           //nolint:depguard // Wired in app layer
	"go.trai.ch/ignite/internal/adapters/host"         //nolint:depguard // Wired in app layer
	"go.trai.ch/ignite/internal/adapters/logger"       //nolint:depguard // Wired in app layer
	"go.trai.ch/ignite/internal/adapters/settings"     //nolint:depguard // Wired in app layer
	"go.trai.ch/ignite/internal/adapters/shell"        //nolint:depguard // Wired in app layer
	"go.trai.ch/ignite/internal/adapters/telemetry"    //nolint:depguard // Wired in app layer
	"go.trai.ch/ignite/internal/core/domain"
	"go.trai.ch/ignite/internal/core/ports"
	"go.trai.ch/ignite/internal/engine/registry"
	"go.trai.ch/ignite/internal/engine/renderer"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			settings.NodeID,
			config.NodeID,
			coordination.NodeID,
			shell.NodeID,
			registry.NodeID,
			renderer.NodeID,
			fs.InstallerNodeID,
			host.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			coordination.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	var (
		deps Deps
		err  error
	)
	if deps.Settings, err = graft.Dep[*domain.Settings](ctx); err != nil {
		return nil, err
	}
	if deps.Loader, err = graft.Dep[ports.GraphLoader](ctx); err != nil {
		return nil, err
	}
	if deps.Store, err = graft.Dep[ports.CoordinationStore](ctx); err != nil {
		return nil, err
	}
	if deps.Executor, err = graft.Dep[ports.Executor](ctx); err != nil {
		return nil, err
	}
	if deps.Registry, err = graft.Dep[ports.GroupRegistry](ctx); err != nil {
		return nil, err
	}
	if deps.Renderer, err = graft.Dep[*renderer.Renderer](ctx); err != nil {
		return nil, err
	}
	if deps.Installer, err = graft.Dep[ports.Installer](ctx); err != nil {
		return nil, err
	}
	if deps.Host, err = graft.Dep[ports.HostResolver](ctx); err != nil {
		return nil, err
	}
	if deps.Tracer, err = graft.Dep[ports.Tracer](ctx); err != nil {
		return nil, err
	}
	if deps.Logger, err = graft.Dep[ports.Logger](ctx); err != nil {
		return nil, err
	}
	return New(deps), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.CoordinationStore](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		App:    app,
		Logger: log,
		Store:  store,
	}, nil
}
