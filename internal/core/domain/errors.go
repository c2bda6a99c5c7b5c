package domain

import "go.trai.ch/zerr"

var (
	// ErrStoreUnavailable is returned when the coordination store cannot be reached.
	// It is fatal to the instance.
	ErrStoreUnavailable = zerr.New("coordination store unavailable")

	// ErrNodeExists is returned when an atomic create finds the node already present.
	ErrNodeExists = zerr.New("node already exists")

	// ErrNodeHasChildren is returned when a non-recursive delete targets a node with children.
	ErrNodeHasChildren = zerr.New("node has children")

	// ErrLockLost is returned when a held lock is lost before the guarded body finished.
	ErrLockLost = zerr.New("lock lost")

	// ErrCommandExecutionFailed is returned when a command exits with a nonzero status.
	ErrCommandExecutionFailed = zerr.New("command execution failed")

	// ErrCommandExhausted is returned when a command fails with no retries left.
	ErrCommandExhausted = zerr.New("command exhausted its retries")

	// ErrConfigurationInvalid is returned when the dependency graph or instance settings are malformed.
	ErrConfigurationInvalid = zerr.New("invalid configuration")

	// ErrCommandAlreadyExists is returned when a role declares the same command twice.
	ErrCommandAlreadyExists = zerr.New("command already exists")

	// ErrEmptyCommand is returned when a command has no shell command.
	ErrEmptyCommand = zerr.New("command has no shell command")

	// ErrInvalidCommandName is returned when a command or role name cannot be used in a store path.
	ErrInvalidCommandName = zerr.New("invalid command name")

	// ErrMultipleDaemons is returned when a role declares more than one daemon command.
	ErrMultipleDaemons = zerr.New("role declares more than one daemon command")

	// ErrMissingDependency is returned when a requirement references a command that is not in the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when requirements form a cycle.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrInvalidRetries is returned when a retry budget or delay is negative.
	ErrInvalidRetries = zerr.New("retries and delay must not be negative")

	// ErrInvalidScope is returned when a requirement scope is neither global nor local.
	ErrInvalidScope = zerr.New("invalid scope, expected 'global' or 'local'")

	// ErrInvalidRequirement is returned when a requirement path is not of the form role/command.
	ErrInvalidRequirement = zerr.New("invalid requirement, expected 'role/command'")

	// ErrInvalidFileSpec is returned when a file entry lacks a destination.
	ErrInvalidFileSpec = zerr.New("file entry requires a destination")

	// ErrRoleNotFound is returned when the selected role is not present in the graph.
	ErrRoleNotFound = zerr.New("role not found")

	// ErrInvalidState is returned when a stored value is not a known task state.
	ErrInvalidState = zerr.New("invalid task state")

	// ErrInvalidHostname is returned when the hostname would collide with a reserved store segment.
	ErrInvalidHostname = zerr.New("invalid hostname")

	// ErrConfigReadFailed is returned when the graph file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read graph file")

	// ErrConfigParseFailed is returned when the graph file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse graph file")

	// ErrSettingsInvalid is returned when an instance setting cannot be parsed.
	ErrSettingsInvalid = zerr.New("invalid instance setting")

	// ErrTemplateNotFound is returned when a template is missing from the store.
	ErrTemplateNotFound = zerr.New("template not found")

	// ErrTemplateParseFailed is returned when a template cannot be parsed.
	ErrTemplateParseFailed = zerr.New("failed to parse template")

	// ErrTemplateRenderFailed is returned when a template cannot be executed.
	ErrTemplateRenderFailed = zerr.New("failed to render template")

	// ErrInstallFailed is returned when a rendered file cannot be installed.
	ErrInstallFailed = zerr.New("failed to install file")

	// ErrInterfaceNotFound is returned when a network interface has no IPv4 address.
	ErrInterfaceNotFound = zerr.New("no ipv4 address for interface")

	// ErrMemberEncodeFailed is returned when a group member cannot be serialized.
	ErrMemberEncodeFailed = zerr.New("failed to encode group member")

	// ErrMemberDecodeFailed is returned when a group member cannot be deserialized.
	ErrMemberDecodeFailed = zerr.New("failed to decode group member")
)
