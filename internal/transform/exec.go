package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/crosspack/crosspack/internal/errors"
)

// ExecTransformer wraps any executable that speaks the transform protocol:
// a Request as JSON on stdin, a Result as JSON on stdout. Stderr passes
// through to the user.
type ExecTransformer struct {
	path string
	args []string
}

// NewExecTransformer creates a transformer backed by an executable.
func NewExecTransformer(path string, args ...string) (*ExecTransformer, error) {
	if _, err := exec.LookPath(path); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransformFailed,
			fmt.Sprintf("transformer executable not found: %s", path), err)
	}
	return &ExecTransformer{path: path, args: args}, nil
}

// Transform invokes the executable once and decodes its result.
func (t *ExecTransformer) Transform(ctx context.Context, req Request) (*Result, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal transform request: %w", err)
	}

	cmd := exec.CommandContext(ctx, t.path, t.args...)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, errors.New(errors.ErrCodeTransformFailed,
				fmt.Sprintf("transformer exited with code %d", exitErr.ExitCode()))
		}
		return nil, errors.Wrap(errors.ErrCodeTransformFailed, "transformer failed to run", err)
	}

	var result Result
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransformFailed, "invalid transformer output", err)
	}
	return &result, nil
}
