package domain

import (
	"errors"
	"slices"

	"go.trai.ch/zerr"
)

// Graph holds the commands of every role of a deployment, in declaration order.
type Graph struct {
	roles map[string][]Command
	order []string
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		roles: make(map[string][]Command),
	}
}

// AddCommand appends a command to its role.
func (g *Graph) AddCommand(cmd Command) error {
	existing, seen := g.roles[cmd.Role]
	for i := range existing {
		if existing[i].Name == cmd.Name {
			return zerr.With(ErrCommandAlreadyExists, "command", cmd.ID())
		}
	}
	if !seen {
		g.order = append(g.order, cmd.Role)
	}
	g.roles[cmd.Role] = append(existing, cmd)
	return nil
}

// Roles returns role names in declaration order.
func (g *Graph) Roles() []string {
	return slices.Clone(g.order)
}

// Role returns a copy of the commands of a role.
func (g *Graph) Role(name string) ([]Command, error) {
	cmds, ok := g.roles[name]
	if !ok {
		return nil, zerr.With(ErrRoleNotFound, "role", name)
	}
	return slices.Clone(cmds), nil
}

// Command looks up a command by role and name.
func (g *Graph) Command(role, name string) (Command, bool) {
	for _, c := range g.roles[role] {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}

// Validate checks every command and the requirement edges between them.
// All problems are reported together.
func (g *Graph) Validate() error {
	var errs []error
	for _, role := range g.order {
		daemons := 0
		for i := range g.roles[role] {
			cmd := &g.roles[role][i]
			if cmd.Daemon {
				daemons++
			}
			errs = append(errs, g.validateCommand(cmd)...)
		}
		if daemons > 1 {
			errs = append(errs, zerr.With(ErrMultipleDaemons, "role", role))
		}
	}
	if len(errs) == 0 {
		if err := g.detectCycles(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (g *Graph) validateCommand(cmd *Command) []error {
	var errs []error
	if !validSegment(cmd.Role) || !validSegment(cmd.Name) {
		errs = append(errs, zerr.With(ErrInvalidCommandName, "command", cmd.ID()))
	}
	if cmd.Shell == "" {
		errs = append(errs, zerr.With(ErrEmptyCommand, "command", cmd.ID()))
	}
	if cmd.Retries < 0 || cmd.RetryDelay < 0 {
		errs = append(errs, zerr.With(ErrInvalidRetries, "command", cmd.ID()))
	}
	for _, f := range cmd.Files {
		if f.Dest == "" {
			errs = append(errs, zerr.With(zerr.With(ErrInvalidFileSpec, "command", cmd.ID()), "file", f.Name))
		}
	}
	for _, req := range cmd.Requires {
		role, name, ok := req.Split()
		if !ok {
			errs = append(errs, zerr.With(zerr.With(ErrInvalidRequirement, "command", cmd.ID()), "requires", req.Path))
			continue
		}
		if _, found := g.Command(role, name); !found {
			errs = append(errs, zerr.With(zerr.With(ErrMissingDependency, "command", cmd.ID()), "requires", req.Path))
		}
	}
	return errs
}

func (g *Graph) detectCycles() error {
	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[string]int)

	var visit func(cmd Command, stack []string) error
	visit = func(cmd Command, stack []string) error {
		id := cmd.ID()
		switch state[id] {
		case visiting:
			return zerr.With(ErrCycleDetected, "path", append(stack, id))
		case visited:
			return nil
		}
		state[id] = visiting
		for _, req := range cmd.Requires {
			role, name, _ := req.Split()
			dep, _ := g.Command(role, name)
			if err := visit(dep, append(stack, id)); err != nil {
				return err
			}
		}
		state[id] = visited
		return nil
	}

	for _, role := range g.order {
		for _, cmd := range g.roles[role] {
			if state[cmd.ID()] == unvisited {
				if err := visit(cmd, nil); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// CollectFiles returns the files declared by cmds, first declaration winning.
func CollectFiles(cmds []Command) []FileSpec {
	var files []FileSpec
	seen := make(map[string]struct{})
	for _, c := range cmds {
		for _, f := range c.Files {
			if _, ok := seen[f.Name]; ok {
				continue
			}
			seen[f.Name] = struct{}{}
			files = append(files, f)
		}
	}
	return files
}

// HasDaemon reports whether any of cmds is a daemon.
func HasDaemon(cmds []Command) bool {
	return slices.ContainsFunc(cmds, func(c Command) bool { return c.Daemon })
}
