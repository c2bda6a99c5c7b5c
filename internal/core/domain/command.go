package domain

import (
	"os"
	"strings"
	"time"

	"go.trai.ch/zerr"
)

// DaemonCommandName is the name of the synthetic entry that holds a role's long-running process.
const DaemonCommandName = "daemon"

// DefaultFilePerm is used for installed files that do not declare a permission.
const DefaultFilePerm os.FileMode = 0o644

// Scope selects the status namespace a requirement resolves in.
type Scope int

const (
	// ScopeGlobal resolves under status/global and is shared by every instance.
	ScopeGlobal Scope = iota
	// ScopeLocal resolves under status/{hostname} and is private to one host.
	ScopeLocal
)

// String returns the name used for the scope in graph files.
func (s Scope) String() string {
	if s == ScopeLocal {
		return "local"
	}
	return "global"
}

// ParseScope parses a scope name. An empty name means global.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "global":
		return ScopeGlobal, nil
	case "local":
		return ScopeLocal, nil
	default:
		return ScopeGlobal, zerr.With(ErrInvalidScope, "scope", s)
	}
}

// Requirement is a prerequisite of a command: the status at Path must be DONE.
// Path has the form "{role}/{command}".
type Requirement struct {
	Path  string
	Scope Scope
}

// Split returns the role and command a requirement refers to.
func (r Requirement) Split() (role, name string, ok bool) {
	role, name, ok = strings.Cut(r.Path, "/")
	if !ok || !validSegment(role) || !validSegment(name) {
		return "", "", false
	}
	return role, name, true
}

// FileSpec describes a configuration file rendered from a template before the first command runs.
type FileSpec struct {
	// Name identifies the entry within the role.
	Name string
	// Source is the template name under config/{role}. Defaults to Name.
	Source string
	// Dest is the absolute destination path on the host.
	Dest string
	// Owner is the optional user that should own the installed file.
	Owner string
	// Perm holds the permission bits of the installed file.
	Perm os.FileMode
}

// TemplateName returns the name of the template backing the file.
func (f FileSpec) TemplateName() string {
	if f.Source != "" {
		return f.Source
	}
	return f.Name
}

// Mode returns the permission bits to install the file with.
func (f FileSpec) Mode() os.FileMode {
	if f.Perm == 0 {
		return DefaultFilePerm
	}
	return f.Perm
}

// Command is one startup step of a role.
// It is built once from the graph and never mutated by the scheduler.
type Command struct {
	Role       string
	Name       string
	Shell      string
	Env        map[string]string
	RunOnce    bool
	Daemon     bool
	Retries    int
	RetryDelay time.Duration
	Requires   []Requirement
	Files      []FileSpec
}

// ID returns the "{role}/{name}" identity of the command.
func (c *Command) ID() string {
	return c.Role + "/" + c.Name
}

func validSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, "/ \t\n")
}
