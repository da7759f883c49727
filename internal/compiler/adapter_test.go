package compiler

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosspack/crosspack/internal/console"
	"github.com/crosspack/crosspack/internal/errors"
	"github.com/crosspack/crosspack/internal/log"
	"github.com/crosspack/crosspack/internal/transform"
)

type fakeProgram struct {
	checkDiags []Diagnostic
	emitDiags  map[ModuleKind][]Diagnostic
	emitted    []Options
	checks     int
	closed     bool
}

func (p *fakeProgram) Check(ctx context.Context) ([]Diagnostic, error) {
	p.checks++
	return p.checkDiags, nil
}

func (p *fakeProgram) Emit(ctx context.Context, opts Options, sink Sink) ([]Diagnostic, error) {
	p.emitted = append(p.emitted, opts)
	if diags := p.emitDiags[opts.Module]; len(diags) > 0 && opts.Declaration == false {
		return diags, nil
	}
	return nil, sink.WriteFile(opts.OutDir+"/mod.js", "export {}")
}

func (p *fakeProgram) Close() error {
	p.closed = true
	return nil
}

type fakeService struct {
	program  *fakeProgram
	programs int
}

func (s *fakeService) CreateProgram(ctx context.Context, files []transform.OutputFile) (Program, error) {
	s.programs++
	return s.program, nil
}

type memorySink struct {
	files map[string]string
}

func (m *memorySink) WriteFile(path, text string) error {
	if m.files == nil {
		m.files = map[string]string{}
	}
	m.files[path] = text
	return nil
}

func newTestAdapter(service Service) (*Adapter, *bytes.Buffer) {
	var out bytes.Buffer
	logger := log.New(log.Config{Level: log.LevelError, Output: &out})
	return NewAdapter(service, console.Plain(&out), logger), &out
}

func TestAdapter_ThreePassesOneProgram(t *testing.T) {
	program := &fakeProgram{}
	service := &fakeService{program: program}
	adapter, _ := newTestAdapter(service)

	sink := &memorySink{}
	err := adapter.Run(context.Background(), nil, sink, Dirs{Types: "types", ESM: "esm", CJS: "cjs"}, true)
	require.NoError(t, err)

	// One program, one check, three emissions with option-only mutation.
	assert.Equal(t, 1, service.programs)
	assert.Equal(t, 1, program.checks)
	require.Len(t, program.emitted, 3)

	assert.True(t, program.emitted[0].EmitDeclarationOnly)
	assert.Equal(t, "types", program.emitted[0].OutDir)

	assert.Equal(t, ModuleESM, program.emitted[1].Module)
	assert.False(t, program.emitted[1].Declaration)
	assert.Equal(t, "esm", program.emitted[1].OutDir)

	assert.Equal(t, ModuleCommonJS, program.emitted[2].Module)
	assert.True(t, program.emitted[2].EsModuleInterop)
	assert.Equal(t, "cjs", program.emitted[2].OutDir)

	assert.True(t, program.closed)
}

func TestAdapter_SkipsCheckWhenDisabled(t *testing.T) {
	program := &fakeProgram{checkDiags: []Diagnostic{{Severity: SeverityError, Code: "TS2304", Message: "boom"}}}
	adapter, _ := newTestAdapter(&fakeService{program: program})

	err := adapter.Run(context.Background(), nil, &memorySink{}, Dirs{}, false)
	require.NoError(t, err)
	assert.Equal(t, 0, program.checks)
}

func TestAdapter_CheckDiagnosticsAreFatalAndRendered(t *testing.T) {
	program := &fakeProgram{checkDiags: []Diagnostic{
		{Severity: SeverityError, Code: "TS2304", File: "mod.ts", Line: 3, Col: 7, Message: "Cannot find name 'Blob'"},
		{Severity: SeverityError, Code: "TS2339", File: "mod.ts", Line: 9, Col: 1, Message: "Property does not exist"},
	}}
	adapter, out := newTestAdapter(&fakeService{program: program})

	err := adapter.Run(context.Background(), nil, &memorySink{}, Dirs{}, true)
	require.Error(t, err)

	var cerr *errors.CrosspackError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, errors.ErrCodeDiagTypeCheck, cerr.Code)

	// Every diagnostic must be rendered in full, not merely counted.
	assert.Contains(t, out.String(), "mod.ts:3:7 - error TS2304: Cannot find name 'Blob'")
	assert.Contains(t, out.String(), "mod.ts:9:1 - error TS2339: Property does not exist")

	// The build aborts before any emission.
	assert.Empty(t, program.emitted)
}

func TestAdapter_EmitDiagnosticsAbortRemainingPasses(t *testing.T) {
	program := &fakeProgram{emitDiags: map[ModuleKind][]Diagnostic{
		ModuleESM: {{Severity: SeverityError, Code: "TS5055", Message: "cannot write file"}},
	}}
	adapter, out := newTestAdapter(&fakeService{program: program})

	err := adapter.Run(context.Background(), nil, &memorySink{}, Dirs{Types: "types", ESM: "esm", CJS: "cjs"}, false)
	require.Error(t, err)

	var cerr *errors.CrosspackError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, errors.ErrCodeDiagEmit, cerr.Code)
	assert.Contains(t, out.String(), "TS5055")

	// Declarations then ESM ran; CJS never started.
	require.Len(t, program.emitted, 2)
}
