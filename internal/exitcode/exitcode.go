package exitcode

import (
	stderrors "errors"
	"os"

	"github.com/crosspack/crosspack/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition, including a test
	// run that completed with failing tests
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// ConfigError indicates invalid or contradictory build configuration
	ConfigError = 3

	// DiagnosticError indicates fatal type-check or emission diagnostics
	DiagnosticError = 4

	// ProcessError indicates an external process failed to run or exited non-zero
	ProcessError = 5

	// Interrupted indicates the run was cancelled by the user
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error category
func ExitWithError(err error) {
	Exit(FromError(err))
}

// FromError maps an error to an exit code
func FromError(err error) int {
	if err == nil {
		return Success
	}

	var cerr *errors.CrosspackError
	if stderrors.As(err, &cerr) {
		switch cerr.Category() {
		case "CONFIG":
			return ConfigError
		case "DIAG":
			return DiagnosticError
		case "PROC":
			return ProcessError
		}
	}
	return GeneralError
}
