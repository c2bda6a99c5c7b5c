// Package coordination opens the coordination store selected by the instance settings.
package coordination

import (
	"go.trai.ch/ignite/internal/adapters/consul"
	"go.trai.ch/ignite/internal/adapters/memstore"
	"go.trai.ch/ignite/internal/core/domain"
	"go.trai.ch/ignite/internal/core/ports"
	"go.trai.ch/zerr"
)

// Open returns a store session for the configured backend.
// The memory backend is process-wide, so every Open in one process shares it.
func Open(settings *domain.Settings, logger ports.Logger) (ports.CoordinationStore, error) {
	switch settings.Store {
	case domain.StoreMemory:
		logger.Debug("using in-memory coordination store")
		return memstore.Shared().Session(), nil
	case domain.StoreConsul, "":
		store, err := consul.New(consul.Config{
			Address:    settings.StoreAddr,
			Token:      settings.StoreToken,
			Prefix:     settings.StorePrefix,
			Deployment: settings.Deployment,
			SessionTTL: settings.SessionTTL,
		}, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrSettingsInvalid, "unknown store"), "store", settings.Store)
	}
}
