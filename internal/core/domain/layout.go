package domain

import (
	"path"
	"strconv"

	"go.trai.ch/zerr"
)

const (
	// StatusRoot holds task states.
	StatusRoot = "status"

	// GlobalSegment is the status namespace shared by every host.
	GlobalSegment = "global"

	// GroupsRoot holds ephemeral group members.
	GroupsRoot = "groups"

	// VariablesRoot holds shared configuration values.
	VariablesRoot = "variables"

	// ConfigRoot holds raw templates per role.
	ConfigRoot = "config"

	// MemberPrefix prefixes the ordinal of a group member node.
	MemberPrefix = "node-"
)

// RegisterPaths are the two locations a command's state is persisted to.
type RegisterPaths struct {
	Global string
	Local  string
}

// Layout resolves store paths, relative to the deployment root, for one host.
type Layout struct {
	hostname string
}

// NewLayout returns the layout for hostname.
func NewLayout(hostname string) (Layout, error) {
	if !validSegment(hostname) || hostname == GlobalSegment {
		return Layout{}, zerr.With(ErrInvalidHostname, "hostname", hostname)
	}
	return Layout{hostname: hostname}, nil
}

// Hostname returns the host the layout resolves local paths for.
func (l Layout) Hostname() string {
	return l.hostname
}

// StatusPath resolves a "{role}/{command}" reference in the given scope.
func (l Layout) StatusPath(scope Scope, ref string) string {
	if scope == ScopeLocal {
		return path.Join(StatusRoot, l.hostname, ref)
	}
	return path.Join(StatusRoot, GlobalSegment, ref)
}

// RegisterPaths returns both state paths of a command.
func (l Layout) RegisterPaths(cmd *Command) RegisterPaths {
	return RegisterPaths{
		Global: l.StatusPath(ScopeGlobal, cmd.ID()),
		Local:  l.StatusPath(ScopeLocal, cmd.ID()),
	}
}

// RequirementPath resolves a requirement to the status path it waits on.
func (l Layout) RequirementPath(r Requirement) string {
	return l.StatusPath(r.Scope, r.Path)
}

// GroupPath returns the parent of a group's member nodes.
func GroupPath(group string) string {
	return path.Join(GroupsRoot, group)
}

// MemberPath returns the ephemeral node of the member with the given ordinal.
func MemberPath(group string, ordinal int) string {
	return path.Join(GroupsRoot, group, MemberPrefix+strconv.Itoa(ordinal))
}

// ParseMemberOrdinal extracts the ordinal from a member node name.
func ParseMemberOrdinal(name string) (int, bool) {
	if len(name) <= len(MemberPrefix) || name[:len(MemberPrefix)] != MemberPrefix {
		return 0, false
	}
	n, err := strconv.Atoi(name[len(MemberPrefix):])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// VariablePath returns the node holding a shared variable.
func VariablePath(name string) string {
	return path.Join(VariablesRoot, name)
}

// TemplatePath returns the node holding a raw template for a role.
func TemplatePath(role, name string) string {
	return path.Join(ConfigRoot, role, name)
}
