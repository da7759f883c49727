package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "crosspack",
	Short: "Build dual-format npm packages from runtime-specific modules",
	Long: `crosspack converts a runtime-specific module graph into an npm package
that works as both ESM and CommonJS. It transforms the sources, synthesizes
a deterministic package manifest, drives the compiler through declaration,
ESM and CJS emission passes, and runs the package tests under both formats.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	rootVerbose   bool
	rootNoColor   bool
	rootLogLevel  string
	rootLogFormat string
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with a cancellable context
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&rootNoColor, "no-color", false, "disable styled output")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&rootLogFormat, "log-format", "text", "log format (text, json)")
}
