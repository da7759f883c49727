// Package compiler wraps the external type-checking and emission service.
// The service is opaque: it accepts a set of virtual source files plus
// compiler options and returns diagnostics and emitted files. This package
// drives it three times per build (declarations, ESM, CJS) against the
// same underlying program with option-only mutation between passes.
package compiler

import (
	"context"
	"fmt"

	"github.com/crosspack/crosspack/internal/transform"
)

// ModuleKind selects the emitted module format.
type ModuleKind string

const (
	// ModuleESM emits ES modules.
	ModuleESM ModuleKind = "esnext"
	// ModuleCommonJS emits CommonJS modules.
	ModuleCommonJS ModuleKind = "commonjs"
)

// Options are the compiler options for one emission pass.
type Options struct {
	Module              ModuleKind `json:"module"`
	OutDir              string     `json:"outDir"`
	Declaration         bool       `json:"declaration"`
	EmitDeclarationOnly bool       `json:"emitDeclarationOnly"`
	EsModuleInterop     bool       `json:"esModuleInterop"`
}

// DeclarationOptions configures the declarations-only pass.
func DeclarationOptions(typesDir string) Options {
	return Options{
		Module:              ModuleESM,
		OutDir:              typesDir,
		Declaration:         true,
		EmitDeclarationOnly: true,
	}
}

// ESMOptions configures the ES-module pass.
func ESMOptions(esmDir string) Options {
	return Options{
		Module: ModuleESM,
		OutDir: esmDir,
	}
}

// CJSOptions configures the CommonJS pass, with interop enabled so default
// imports of CommonJS dependencies keep working.
func CJSOptions(cjsDir string) Options {
	return Options{
		Module:          ModuleCommonJS,
		OutDir:          cjsDir,
		EsModuleInterop: true,
	}
}

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one message reported by the compiler service.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Col      int      `json:"col,omitempty"`
	Message  string   `json:"message"`
}

// String renders the diagnostic the way it is shown to the user.
func (d Diagnostic) String() string {
	if d.File != "" {
		return fmt.Sprintf("%s:%d:%d - %s %s: %s", d.File, d.Line, d.Col, d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s %s: %s", d.Severity, d.Code, d.Message)
}

// Sink receives emitted output files.
type Sink interface {
	WriteFile(path, text string) error
}

// Program is one parsed-and-bound file set held by the service. Check and
// Emit may be called repeatedly with different options without re-parsing.
type Program interface {
	Check(ctx context.Context) ([]Diagnostic, error)
	Emit(ctx context.Context, opts Options, sink Sink) ([]Diagnostic, error)
	Close() error
}

// Service creates programs from virtual file sets.
type Service interface {
	CreateProgram(ctx context.Context, files []transform.OutputFile) (Program, error)
}
