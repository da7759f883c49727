package compiler

import (
	"context"

	"github.com/crosspack/crosspack/internal/console"
	"github.com/crosspack/crosspack/internal/errors"
	"github.com/crosspack/crosspack/internal/log"
	"github.com/crosspack/crosspack/internal/transform"
)

// Dirs are the three output trees of one build.
type Dirs struct {
	Types string
	ESM   string
	CJS   string
}

// Adapter sequences the check and emission passes of one build against a
// single program. Any non-empty diagnostic list is fatal; every diagnostic
// is rendered in full before the build aborts.
type Adapter struct {
	service Service
	console *console.Console
	log     *log.Logger
}

// NewAdapter creates an Adapter around the given compiler service.
func NewAdapter(service Service, con *console.Console, logger *log.Logger) *Adapter {
	return &Adapter{service: service, console: con, log: logger}
}

// Run type-checks (unless disabled) and emits the three output trees.
// The program is created once; only options change between passes.
func (a *Adapter) Run(ctx context.Context, files []transform.OutputFile, sink Sink, dirs Dirs, typeCheck bool) error {
	program, err := a.service.CreateProgram(ctx, files)
	if err != nil {
		return err
	}
	defer program.Close()

	if typeCheck {
		a.log.Debug("type checking", "files", len(files))
		diags, err := program.Check(ctx)
		if err != nil {
			return err
		}
		if len(diags) > 0 {
			a.render(diags)
			return errors.NewTypeCheckError(len(diags))
		}
	}

	passes := []struct {
		name string
		opts Options
	}{
		{"declaration", DeclarationOptions(dirs.Types)},
		{"esm", ESMOptions(dirs.ESM)},
		{"cjs", CJSOptions(dirs.CJS)},
	}
	for _, pass := range passes {
		a.log.Debug("emitting", "pass", pass.name, "outDir", pass.opts.OutDir)
		diags, err := program.Emit(ctx, pass.opts, sink)
		if err != nil {
			return err
		}
		if len(diags) > 0 {
			a.render(diags)
			return errors.NewEmitError(pass.name, len(diags))
		}
	}
	return nil
}

// render prints every diagnostic. Counting alone is not enough: the user
// must see the full list before the abort.
func (a *Adapter) render(diags []Diagnostic) {
	for _, d := range diags {
		if d.Severity == SeverityWarning {
			a.console.Warnf("%s", d.String())
		} else {
			a.console.Errorf("%s", d.String())
		}
	}
}
