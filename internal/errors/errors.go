package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Configuration errors (CONFIG-001 to CONFIG-099): invalid or
	// contradictory options, detected before any side effect
	ErrCodeConfigNotFound      ErrorCode = "CONFIG-001"
	ErrCodeConfigInvalid       ErrorCode = "CONFIG-002"
	ErrCodeConfigNoEntryPoints ErrorCode = "CONFIG-003"
	ErrCodeConfigNoOutDir      ErrorCode = "CONFIG-004"
	ErrCodeConfigTestEntries   ErrorCode = "CONFIG-005"
	ErrCodeConfigShimOption    ErrorCode = "CONFIG-006"
	ErrCodeConfigMapping       ErrorCode = "CONFIG-007"

	// Diagnostic errors (DIAG-001 to DIAG-099): non-empty compiler
	// diagnostics after type-checking or an emission pass
	ErrCodeDiagTypeCheck ErrorCode = "DIAG-001"
	ErrCodeDiagEmit      ErrorCode = "DIAG-002"

	// Process errors (PROC-001 to PROC-099): external package-manager
	// invocations that could not start or exited non-zero
	ErrCodeProcStart ErrorCode = "PROC-001"
	ErrCodeProcExit  ErrorCode = "PROC-002"

	// Transform errors (TRANSFORM-001 to TRANSFORM-099)
	ErrCodeTransformFailed ErrorCode = "TRANSFORM-001"

	// Harness errors (HARNESS-001 to HARNESS-099)
	ErrCodeHarnessGenerate ErrorCode = "HARNESS-001"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileWriteFailed ErrorCode = "IO-001"
	ErrCodeDirectoryFailed ErrorCode = "IO-002"
	ErrCodeFileReadFailed  ErrorCode = "IO-003"
)

// CrosspackError represents an enhanced error with code and suggestions
type CrosspackError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *CrosspackError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *CrosspackError) Unwrap() error {
	return e.Cause
}

// New creates a new CrosspackError
func New(code ErrorCode, message string) *CrosspackError {
	return &CrosspackError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new CrosspackError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *CrosspackError {
	return &CrosspackError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *CrosspackError) WithSuggestion(suggestion string) *CrosspackError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// Category returns the leading segment of the error code, e.g. "CONFIG"
func (e *CrosspackError) Category() string {
	code := string(e.Code)
	if i := strings.IndexByte(code, '-'); i > 0 {
		return code[:i]
	}
	return code
}

// Common error constructors for frequently used errors

// NewConfigNotFoundError creates a configuration file not found error
func NewConfigNotFoundError(path string) *CrosspackError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithSuggestion("Run 'crosspack build --config <file>' with an existing file").
		WithSuggestion("Check if the file path is correct")
}

// NewNoEntryPointsError creates an error for a build with nothing to build
func NewNoEntryPointsError() *CrosspackError {
	return New(ErrCodeConfigNoEntryPoints, "no entry points configured").
		WithSuggestion("Add at least one entry point under 'entryPoints' in the config file")
}

// NewTypeCheckError creates an error for a failed type-check pass.
// The diagnostics themselves are rendered separately before this is returned.
func NewTypeCheckError(count int) *CrosspackError {
	return New(ErrCodeDiagTypeCheck, fmt.Sprintf("type checking failed with %d diagnostic(s)", count)).
		WithSuggestion("Fix the reported diagnostics and re-run the build").
		WithSuggestion("Pass --no-type-check to skip type checking (emission diagnostics remain fatal)")
}

// NewEmitError creates an error for a failed emission pass
func NewEmitError(pass string, count int) *CrosspackError {
	return New(ErrCodeDiagEmit, fmt.Sprintf("%s emission failed with %d diagnostic(s)", pass, count))
}

// NewProcessExitError creates an error for a non-zero subprocess exit
func NewProcessExitError(command string, exitCode int) *CrosspackError {
	return New(ErrCodeProcExit, fmt.Sprintf("command %q exited with code %d", command, exitCode)).
		WithSuggestion("Inspect the command output above for the underlying failure")
}

// NewProcessStartError creates an error for a subprocess that never ran
func NewProcessStartError(command string, cause error) *CrosspackError {
	return Wrap(ErrCodeProcStart, fmt.Sprintf("failed to start command %q", command), cause).
		WithSuggestion("Check that the package manager is installed and on PATH")
}
