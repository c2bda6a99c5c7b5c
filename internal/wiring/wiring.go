// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/ignite/internal/adapters/config"
	_ "go.trai.ch/ignite/internal/adapters/coordination"
	_ "go.trai.ch/ignite/internal/adapters/fs"
	_ "go.trai.ch/ignite/internal/adapters/host"
	_ "go.trai.ch/ignite/internal/adapters/logger"
	_ "go.trai.ch/ignite/internal/adapters/settings"
	_ "go.trai.ch/ignite/internal/adapters/shell"
	_ "go.trai.ch/ignite/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/ignite/internal/app"
	_ "go.trai.ch/ignite/internal/engine/registry"
	_ "go.trai.ch/ignite/internal/engine/renderer"
)
