package config

import (
	"strconv"
	"strings"

	"go.trai.ch/ignite/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// CommandDTO represents one entry of a role in the graph file.
type CommandDTO struct {
	Command  string            `yaml:"command"`
	RunOnce  bool              `yaml:"run_once"`
	Daemon   bool              `yaml:"daemon"`
	Retries  int               `yaml:"retries"`
	Delay    int               `yaml:"delay"`
	Env      map[string]string `yaml:"env"`
	Requires []RequirementDTO  `yaml:"requires"`
	Files    yaml.Node         `yaml:"files"`
}

// UnmarshalYAML accepts a bare string as the shell command.
func (c *CommandDTO) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		c.Command = value.Value
		return nil
	}
	type plain CommandDTO
	return value.Decode((*plain)(c))
}

// RequirementDTO is either a bare "role/command" string or a {path, scope} mapping.
type RequirementDTO struct {
	Path  string `yaml:"path"`
	Scope string `yaml:"scope"`
}

// UnmarshalYAML accepts the scalar shorthand.
func (r *RequirementDTO) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		r.Path = value.Value
		return nil
	}
	type plain RequirementDTO
	return value.Decode((*plain)(r))
}

// FileDTO represents a templated file a command needs.
type FileDTO struct {
	Source string   `yaml:"source"`
	Dest   string   `yaml:"dest"`
	Owner  string   `yaml:"owner"`
	Perm   FileMode `yaml:"perm"`
}

// FileMode is a permission written in octal, with or without a leading 0 or 0o.
type FileMode uint32

// UnmarshalYAML parses the scalar as octal regardless of how YAML would resolve it.
func (m *FileMode) UnmarshalYAML(value *yaml.Node) error {
	s := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(value.Value), "0o"), "0O")
	if s == "" {
		*m = 0
		return nil
	}
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil || n > 0o7777 {
		return zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "invalid permission"), "perm", value.Value)
	}
	*m = FileMode(n)
	return nil
}
