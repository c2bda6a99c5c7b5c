//go:build e2e

package e2e_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

var igniteBinary string

func TestMain(m *testing.M) {
	tmpDir, err := os.MkdirTemp("", "ignite-e2e-*")
	if err != nil {
		panic(err)
	}

	igniteBinary = filepath.Join(tmpDir, "ignite")

	//nolint:gosec // Building binary with static arguments, not user input
	cmd := exec.Command("go", "build", "-o", igniteBinary, "./cmd/ignite")
	cmd.Dir = ".."
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		panic("failed to build ignite binary: " + err.Error())
	}

	exitCode := m.Run()

	_ = os.RemoveAll(tmpDir)

	os.Exit(exitCode)
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir:   "testdata",
		Setup: setupE2E,
	})
}

func setupE2E(env *testscript.Env) error {
	env.Setenv("NO_COLOR", "1")
	env.Setenv("CI", "true")
	env.Setenv("IGNITE_STORE", "memory")
	env.Setenv("IGNITE_DEPLOYMENT", "e2e")
	env.Setenv("IGNITE_HOSTNAME", "e2e-1")
	env.Setenv("IGNITE_INTERFACES", "lo")
	env.Setenv("IGNITE_LOG_FORMAT", "pretty")

	binDir := filepath.Dir(igniteBinary)
	currentPath := env.Getenv("PATH")
	env.Setenv("PATH", binDir+string(os.PathListSeparator)+currentPath)

	homeDir := filepath.Join(env.WorkDir, ".home")
	if err := os.MkdirAll(homeDir, 0o750); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)

	return nil
}
