// Package shell provides the shell executor adapter.
package shell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"slices"
	"strings"
	"sync"
	"time"

	"go.trai.ch/ignite/internal/core/domain"
	"go.trai.ch/ignite/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultShell interprets command lines.
const DefaultShell = "/bin/sh"

// waitDelay bounds how long output is drained after the process is killed.
const waitDelay = 10 * time.Second

// Executor implements ports.Executor by running each command line through the shell.
type Executor struct {
	logger ports.Logger
	shell  string
}

var _ ports.Executor = (*Executor)(nil)

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{
		logger: logger,
		shell:  DefaultShell,
	}
}

// Run executes the command line and returns its exit status.
// A command that starts and exits, with any status, returns a nil error.
// An error means the process could not be started or was cut short by ctx;
// the exit code is then -1.
func (e *Executor) Run(ctx context.Context, cmd *domain.Command) (int, error) {
	c := exec.CommandContext(ctx, e.shell, "-c", cmd.Shell) //nolint:gosec // operator supplied command
	c.Env = resolveEnvironment(os.Environ(), cmd.Env)
	c.WaitDelay = waitDelay
	killProcessGroup(c)

	stdout := &logWriter{logger: e.logger, stderr: false}
	stderr := &logWriter{logger: e.logger, stderr: true}
	c.Stdout = stdout
	c.Stderr = stderr

	err := c.Run()
	stdout.Flush()
	stderr.Flush()

	if err == nil {
		return 0, nil
	}
	if ctx.Err() != nil {
		return -1, zerr.With(zerr.Wrap(context.Cause(ctx), "command interrupted"), "command", cmd.ID())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, zerr.With(zerr.Wrap(err, domain.ErrCommandExecutionFailed.Error()), "command", cmd.ID())
}

// logWriter forwards complete lines of process output to the logger.
type logWriter struct {
	logger ports.Logger
	stderr bool

	mu  sync.Mutex
	buf []byte
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(string(w.buf[:i]))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// Flush logs any trailing partial line.
func (w *logWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buf) > 0 {
		w.emit(string(w.buf))
		w.buf = nil
	}
}

func (w *logWriter) emit(line string) {
	line = strings.TrimSuffix(line, "\r")
	if w.stderr {
		w.logger.Warn(line)
		return
	}
	w.logger.Info(line)
}

// resolveEnvironment overlays the command's variables on the process environment.
func resolveEnvironment(sysEnv []string, cmdEnv map[string]string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(cmdEnv))
	for _, entry := range sysEnv {
		if k, v, ok := strings.Cut(entry, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range cmdEnv {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}
