package compiler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"

	"github.com/crosspack/crosspack/internal/transform"
)

// ExecService wraps an executable compiler service speaking JSON lines over
// stdin/stdout. One subprocess is started per program and stays alive
// across check and emission requests, so the file set is parsed once and
// only options change between passes.
type ExecService struct {
	path string
	args []string
}

// NewExecService creates a compiler service backed by an executable.
func NewExecService(path string, args ...string) (*ExecService, error) {
	if _, err := exec.LookPath(path); err != nil {
		return nil, fmt.Errorf("compiler executable not found: %s: %w", path, err)
	}
	return &ExecService{path: path, args: args}, nil
}

type execRequest struct {
	Op      string                 `json:"op"`
	Files   []transform.OutputFile `json:"files,omitempty"`
	Options *Options               `json:"options,omitempty"`
}

type execResponse struct {
	OK          bool                   `json:"ok"`
	Error       string                 `json:"error,omitempty"`
	Diagnostics []Diagnostic           `json:"diagnostics,omitempty"`
	Files       []transform.OutputFile `json:"files,omitempty"`
}

// CreateProgram starts the subprocess and loads the file set into it.
func (s *ExecService) CreateProgram(ctx context.Context, files []transform.OutputFile) (Program, error) {
	cmd := exec.CommandContext(ctx, s.path, s.args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start compiler service: %w", err)
	}

	p := &execProgram{
		cmd:     cmd,
		stdin:   stdin,
		scanner: bufio.NewScanner(stdout),
	}
	p.scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	if _, err := p.roundTrip(execRequest{Op: "create", Files: files}); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

type execProgram struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	scanner *bufio.Scanner
}

func (p *execProgram) roundTrip(req execRequest) (*execResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal compiler request: %w", err)
	}
	if _, err := p.stdin.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("write compiler request: %w", err)
	}

	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return nil, fmt.Errorf("read compiler response: %w", err)
		}
		return nil, fmt.Errorf("compiler service closed its output")
	}

	var resp execResponse
	if err := json.Unmarshal(p.scanner.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("invalid compiler response: %w", err)
	}
	if !resp.OK {
		return nil, fmt.Errorf("compiler service error: %s", resp.Error)
	}
	return &resp, nil
}

func (p *execProgram) Check(ctx context.Context) ([]Diagnostic, error) {
	resp, err := p.roundTrip(execRequest{Op: "check"})
	if err != nil {
		return nil, err
	}
	return resp.Diagnostics, nil
}

func (p *execProgram) Emit(ctx context.Context, opts Options, sink Sink) ([]Diagnostic, error) {
	resp, err := p.roundTrip(execRequest{Op: "emit", Options: &opts})
	if err != nil {
		return nil, err
	}
	if len(resp.Diagnostics) > 0 {
		return resp.Diagnostics, nil
	}
	for _, f := range resp.Files {
		if err := sink.WriteFile(f.Path, f.Text); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (p *execProgram) Close() error {
	p.stdin.Close()
	return p.cmd.Wait()
}
