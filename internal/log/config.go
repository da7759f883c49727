package log

import (
	"io"
	"os"
)

// Format represents the output format for logs
type Format int

const (
	// FormatText outputs logs in human-readable text format
	FormatText Format = iota
	// FormatJSON outputs logs in JSON format
	FormatJSON
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatText:
		return "text"
	default:
		return "text"
	}
}

// ParseFormat parses a string into a Format
func ParseFormat(s string) Format {
	switch s {
	case "json", "JSON":
		return FormatJSON
	case "text", "TEXT", "console":
		return FormatText
	default:
		return FormatText
	}
}

// Config holds configuration for the logger
type Config struct {
	// Level is the minimum log level to output
	Level Level

	// Format is the output format (Text or JSON)
	Format Format

	// Output is where logs should be written
	Output io.Writer

	// AddSource includes source file and line number in logs
	AddSource bool
}

// DefaultConfig returns the configuration used by the CLI: text logs at
// info level on stderr, keeping stdout clean for build and test reports.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatText,
		Output: os.Stderr,
	}
}

// VerboseConfig returns a configuration for --verbose runs
func VerboseConfig() Config {
	return Config{
		Level:     LevelDebug,
		Format:    FormatText,
		Output:    os.Stderr,
		AddSource: true,
	}
}
