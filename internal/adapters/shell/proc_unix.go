//go:build unix

package shell

import (
	"os/exec"
	"syscall"
)

// killProcessGroup runs the shell in its own process group and kills the whole
// group on cancellation, so children of the shell do not outlive it.
func killProcessGroup(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		return syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
	}
}
