// Package config loads the dependency graph file.
//
// The file maps each role to its commands in declaration order:
//
//	db:
//	  init:
//	    command: /usr/local/bin/init-db
//	    run_once: true
//	    retries: 2
//	    delay: 5
//	    files:
//	      my.cnf: {dest: /etc/mysql/my.cnf, owner: mysql, perm: "0640"}
//	  daemon:
//	    command: mysqld
//	    requires: [db/init]
//
// An entry named "daemon" is the role's daemon. Files ending in .json or
// .jsonc are accepted as well.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"go.trai.ch/ignite/internal/core/domain"
	"go.trai.ch/ignite/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.GraphLoader.
type Loader struct {
	Logger ports.Logger
}

var _ ports.GraphLoader = (*Loader)(nil)

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the graph file at path. The result is not validated.
func (l *Loader) Load(path string) (*domain.Graph, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}
	g, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	l.Logger.Debug("loaded graph " + path + " with roles " + strings.Join(g.Roles(), ", "))
	return g, nil
}

// Parse builds a graph from file content. ext selects JSONC handling for ".json" and ".jsonc".
func Parse(data []byte, ext string) (*domain.Graph, error) {
	switch strings.ToLower(ext) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
	}

	g := domain.NewGraph()
	if len(doc.Content) == 0 {
		return g, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, zerr.Wrap(domain.ErrConfigParseFailed, "top level must map roles to commands")
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		role := root.Content[i].Value
		entries := root.Content[i+1]
		if entries.Kind != yaml.MappingNode {
			return nil, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "role must map names to commands"), "role", role)
		}
		for j := 0; j+1 < len(entries.Content); j += 2 {
			name := entries.Content[j].Value
			var dto CommandDTO
			if err := entries.Content[j+1].Decode(&dto); err != nil {
				return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "command", role+"/"+name)
			}
			cmd, err := toCommand(role, name, &dto)
			if err != nil {
				return nil, err
			}
			if err := g.AddCommand(cmd); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

func toCommand(role, name string, dto *CommandDTO) (domain.Command, error) {
	cmd := domain.Command{
		Role:       role,
		Name:       name,
		Shell:      dto.Command,
		Env:        dto.Env,
		RunOnce:    dto.RunOnce,
		Daemon:     dto.Daemon || name == domain.DaemonCommandName,
		Retries:    dto.Retries,
		RetryDelay: time.Duration(dto.Delay) * time.Second,
	}

	for _, r := range dto.Requires {
		scope, err := domain.ParseScope(r.Scope)
		if err != nil {
			return domain.Command{}, zerr.With(err, "command", cmd.ID())
		}
		cmd.Requires = append(cmd.Requires, domain.Requirement{Path: r.Path, Scope: scope})
	}

	files, err := toFiles(&dto.Files)
	if err != nil {
		return domain.Command{}, zerr.With(err, "command", cmd.ID())
	}
	cmd.Files = files
	return cmd, nil
}

func toFiles(node *yaml.Node) ([]domain.FileSpec, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, zerr.Wrap(domain.ErrConfigParseFailed, "files must map names to entries")
	}
	var files []domain.FileSpec
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		var dto FileDTO
		if err := node.Content[i+1].Decode(&dto); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "file", name)
		}
		files = append(files, domain.FileSpec{
			Name:   name,
			Source: dto.Source,
			Dest:   dto.Dest,
			Owner:  dto.Owner,
			Perm:   os.FileMode(dto.Perm),
		})
	}
	return files, nil
}
