package ports

import "go.trai.ch/ignite/internal/core/domain"

// GraphLoader defines the interface for loading the dependency graph.
//
//go:generate mockgen -source=graph_loader.go -destination=mocks/mock_graph_loader.go -package=mocks
type GraphLoader interface {
	// Load reads the graph file at path.
	Load(path string) (*domain.Graph, error)
}
