package build

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/crosspack/crosspack/internal/errors"
)

// ProcessRunner invokes external commands synchronously with the caller's
// standard streams. The package manager's install and test commands go
// through here. The returned int is the exit code; the error is non-nil
// only when the process could not run at all.
type ProcessRunner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (int, error)
}

// ExecProcessRunner runs commands on the host.
type ExecProcessRunner struct{}

// Run blocks until the command exits.
func (ExecProcessRunner) Run(ctx context.Context, dir string, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		display := strings.Join(append([]string{name}, args...), " ")
		return -1, errors.NewProcessStartError(display, err)
	}
	return 0, nil
}
