package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crosspack/crosspack/internal/build"
	"github.com/crosspack/crosspack/internal/compiler"
	"github.com/crosspack/crosspack/internal/config"
	"github.com/crosspack/crosspack/internal/console"
	"github.com/crosspack/crosspack/internal/log"
	"github.com/crosspack/crosspack/internal/transform"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Transform, compile and package for both module formats",
	Long: `Run the full pipeline for one configuration: transform the module
graph, synthesize package.json and the format marker files, install
dependencies, emit declarations plus ESM and CJS trees, and run the
generated test harness under both formats.

A build record with stage timings and the manifest digest is written
into the output directory.`,
	RunE: runBuild,
}

var (
	buildConfigPath    string
	buildNoTypeCheck   bool
	buildSkipTests     bool
	buildKeepTestFiles bool
)

func init() {
	buildCmd.Flags().StringVarP(&buildConfigPath, "config", "c", "crosspack.yaml", "configuration file")
	buildCmd.Flags().BoolVar(&buildNoTypeCheck, "no-type-check", false, "skip type checking (emission diagnostics remain fatal)")
	buildCmd.Flags().BoolVar(&buildSkipTests, "skip-tests", false, "build without generating or running the test harness")
	buildCmd.Flags().BoolVar(&buildKeepTestFiles, "keep-test-files", false, "leave test output and the harness script in the package")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(buildConfigPath)
	if err != nil {
		return err
	}
	applyBuildFlags(cfg)

	orch, err := newOrchestrator(cfg)
	if err != nil {
		return err
	}

	record, err := orch.Build(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if record.TestsRan && !record.TestsPassed {
		return fmt.Errorf("tests failed under at least one format")
	}
	return nil
}

// applyBuildFlags layers explicit flags over the loaded configuration.
func applyBuildFlags(cfg *config.Config) {
	if buildNoTypeCheck {
		enabled := false
		cfg.TypeCheck = &enabled
	}
	if buildSkipTests {
		cfg.Test = false
		cfg.TestEntryPoints = nil
		cfg.KeepTestFiles = false
		cfg.RootTestDir = ""
	}
	if buildKeepTestFiles {
		cfg.KeepTestFiles = true
	}
}

func newOrchestrator(cfg *config.Config) (*build.Orchestrator, error) {
	transformer, err := transform.NewExecTransformer(cfg.Transformer.Command[0], cfg.Transformer.Command[1:]...)
	if err != nil {
		return nil, err
	}
	service, err := compiler.NewExecService(cfg.Compiler.Command[0], cfg.Compiler.Command[1:]...)
	if err != nil {
		return nil, err
	}

	con := console.New(os.Stdout)
	if rootNoColor {
		con = console.Plain(os.Stdout)
	}
	logConfig := log.DefaultConfig()
	if rootVerbose {
		logConfig = log.VerboseConfig()
	}
	if rootLogLevel != "" {
		logConfig.Level = log.ParseLevel(rootLogLevel)
	}
	logConfig.Format = log.ParseFormat(rootLogFormat)

	return &build.Orchestrator{
		Transformer: transformer,
		Compiler:    service,
		Proc:        build.ExecProcessRunner{},
		Sink:        build.NewDiskSink(cfg.OutDir),
		Console:     con,
		Log:         log.New(logConfig),
	}, nil
}
