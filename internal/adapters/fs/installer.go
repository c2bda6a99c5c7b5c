// Package fs installs rendered configuration files on the host.
package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"go.trai.ch/ignite/internal/core/domain"
	"go.trai.ch/ignite/internal/core/ports"
	"go.trai.ch/zerr"
)

// CommandRunner runs an external program and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs the program with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput() //nolint:gosec // fixed program, arguments from the graph
}

// Installer implements ports.Installer.
//
// Unchanged files are left alone. Privileged installs write a temporary file and
// hand it to "sudo -n install"; otherwise the file is written next to its
// destination and renamed into place.
type Installer struct {
	logger     ports.Logger
	privileged bool
	run        CommandRunner
	tempDir    string
}

var _ ports.Installer = (*Installer)(nil)

// Option configures an Installer.
type Option func(*Installer)

// WithCommandRunner replaces the runner used for privileged installs.
func WithCommandRunner(run CommandRunner) Option {
	return func(i *Installer) {
		i.run = run
	}
}

// WithTempDir sets where privileged installs stage their files.
func WithTempDir(dir string) Option {
	return func(i *Installer) {
		i.tempDir = dir
	}
}

// NewInstaller creates an Installer.
func NewInstaller(logger ports.Logger, privileged bool, opts ...Option) *Installer {
	i := &Installer{
		logger:     logger,
		privileged: privileged,
		run:        ExecRunner,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Install writes content to spec.Dest. It reports false when the destination
// already held the same content.
func (i *Installer) Install(ctx context.Context, spec domain.FileSpec, content []byte) (bool, error) {
	same, err := Matches(spec.Dest, content)
	if err != nil {
		return false, installErr(err, spec)
	}
	if same {
		return false, nil
	}

	if i.privileged {
		err = i.installPrivileged(ctx, spec, content)
	} else {
		err = installLocal(spec, content)
	}
	if err != nil {
		return false, installErr(err, spec)
	}
	return true, nil
}

func installErr(err error, spec domain.FileSpec) error {
	return errors.Join(domain.ErrInstallFailed, zerr.With(zerr.With(err, "file", spec.Name), "dest", spec.Dest))
}

func (i *Installer) installPrivileged(ctx context.Context, spec domain.FileSpec, content []byte) error {
	tmp, err := os.CreateTemp(i.tempDir, "ignite-*")
	if err != nil {
		return zerr.Wrap(err, "failed to create staging file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // Best effort cleanup

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, "failed to write staging file")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to close staging file")
	}

	args := []string{"-n", "install", "-D", "-m", fmt.Sprintf("%04o", spec.Mode().Perm())}
	if spec.Owner != "" {
		owner, group, _ := strings.Cut(spec.Owner, ":")
		args = append(args, "-o", owner)
		if group != "" {
			args = append(args, "-g", group)
		}
	}
	args = append(args, tmp.Name(), spec.Dest)

	i.logger.Debug("sudo " + strings.Join(args, " "))
	if out, err := i.run(ctx, "sudo", args...); err != nil {
		return zerr.With(zerr.Wrap(err, "sudo install failed"), "output", strings.TrimSpace(string(out)))
	}
	return nil
}

func installLocal(spec domain.FileSpec, content []byte) error {
	dir := filepath.Dir(spec.Dest)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // config directories are world readable
		return zerr.Wrap(err, "failed to create directory")
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(spec.Dest)+".ignite-*")
	if err != nil {
		return zerr.Wrap(err, "failed to create staging file")
	}
	name := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(name)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, "failed to write staging file")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to close staging file")
	}
	if err := os.Chmod(name, spec.Mode().Perm()); err != nil {
		return zerr.Wrap(err, "failed to set permissions")
	}
	if spec.Owner != "" {
		uid, gid, err := lookupOwner(spec.Owner)
		if err != nil {
			return err
		}
		if err := os.Chown(name, uid, gid); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to set owner"), "owner", spec.Owner)
		}
	}
	if err := os.Rename(name, spec.Dest); err != nil {
		return zerr.Wrap(err, "failed to move file into place")
	}
	committed = true
	return nil
}

// lookupOwner resolves "user" or "user:group". A bare user uses its primary group.
func lookupOwner(owner string) (int, int, error) {
	name, groupName, _ := strings.Cut(owner, ":")
	u, err := user.Lookup(name)
	if err != nil {
		return 0, 0, zerr.With(zerr.Wrap(err, "unknown owner"), "owner", owner)
	}
	gidStr := u.Gid
	if groupName != "" {
		g, err := user.LookupGroup(groupName)
		if err != nil {
			return 0, 0, zerr.With(zerr.Wrap(err, "unknown group"), "owner", owner)
		}
		gidStr = g.Gid
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, zerr.With(zerr.Wrap(err, "non-numeric uid"), "owner", owner)
	}
	gid, err := strconv.Atoi(gidStr)
	if err != nil {
		return 0, 0, zerr.With(zerr.Wrap(err, "non-numeric gid"), "owner", owner)
	}
	return uid, gid, nil
}
