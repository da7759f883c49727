package build

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crosspack/crosspack/internal/compiler"
	"github.com/crosspack/crosspack/internal/config"
	"github.com/crosspack/crosspack/internal/console"
	"github.com/crosspack/crosspack/internal/errors"
	"github.com/crosspack/crosspack/internal/harness"
	"github.com/crosspack/crosspack/internal/log"
	"github.com/crosspack/crosspack/internal/manifest"
	"github.com/crosspack/crosspack/internal/shims"
	"github.com/crosspack/crosspack/internal/transform"
)

// Format marker files written into the emitted trees.
const (
	esmMarker = "{\n  \"type\": \"module\"\n}\n"
	cjsMarker = "{\n  \"type\": \"commonjs\"\n}\n"
)

// ExclusionFileName lists test-derived output so packaging tooling can
// exclude it from the published tarball.
const ExclusionFileName = ".npmignore"

// Orchestrator sequences one build: transform, manifest synthesis,
// install, the three emission passes, harness generation and the test
// run. Every stage blocks until the previous stage's external call has
// completed; a fatal error aborts the remaining stages but already
// written files stay on disk.
type Orchestrator struct {
	Transformer transform.Transformer
	Compiler    compiler.Service
	Proc        ProcessRunner
	Sink        Sink
	Console     *console.Console
	Log         *log.Logger
}

// Build runs the pipeline for one validated configuration.
func (o *Orchestrator) Build(ctx context.Context, cfg *config.Config) (*Record, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := o.Log.With("run_id", runID)
	warnings := NewWarnings(o.Console)
	record := &Record{RunID: runID}

	opts := cfg.Shims.Options()
	resolved := shims.Resolve(opts)
	shimPackage := ""
	if !resolved.Empty() {
		shimPackage = shims.NamespacePackageName(opts)
	}

	// Transform the distributed graph, then the test superset.
	o.Console.Stagef("transforming %d entry point(s)", len(cfg.EntryPoints))
	start := time.Now()
	dist, err := o.Transformer.Transform(ctx, transform.Request{
		EntryPoints: cfg.EntryPoints,
		ShimPackage: shimPackage,
		Mappings:    cfg.Mappings,
	})
	if err != nil {
		return nil, err
	}
	surfaceWarnings(warnings, dist.Warnings)

	var test *transform.Result
	if cfg.Test {
		superset, err := o.Transformer.Transform(ctx, transform.Request{
			EntryPoints: append(append([]string{}, cfg.EntryPoints...), testEntries(cfg)...),
			ShimPackage: shimPackage,
			Mappings:    cfg.Mappings,
		})
		if err != nil {
			return nil, err
		}
		test = transform.FilterTest(dist, superset)
		surfaceWarnings(warnings, test.Warnings)
	}
	record.addStage("transform", start)

	if !resolved.Empty() && !dist.ShimUsed && (test == nil || !test.ShimUsed) {
		warnings.Warnf("shims are configured but no shimmed global was referenced")
	}

	// The transformed sources ship inside the package so declaration maps
	// and stack traces resolve.
	start = time.Now()
	if err := o.writeSources(dist, test); err != nil {
		return nil, err
	}
	record.addStage("sources", start)

	// Synthesize the manifest and the format markers before installing so
	// the package manager sees the final dependency set.
	start = time.Now()
	descriptor, err := manifest.Build(manifest.Input{
		Transform:     dist,
		Test:          test,
		Shims:         resolved,
		Mappings:      cfg.Mappings,
		Package:       cfg.Package,
		HarnessScript: harness.ScriptName,
	})
	if err != nil {
		return nil, err
	}
	record.Package = descriptor.Name
	record.Version = descriptor.Version

	encoded, err := manifest.Encode(descriptor)
	if err != nil {
		return nil, err
	}
	if record.ManifestDigest, err = manifest.Digest(descriptor); err != nil {
		return nil, err
	}
	if err := o.Sink.WriteFile("package.json", string(encoded)); err != nil {
		return nil, err
	}
	if err := o.Sink.WriteFile("esm/package.json", esmMarker); err != nil {
		return nil, err
	}
	if err := o.Sink.WriteFile("cjs/package.json", cjsMarker); err != nil {
		return nil, err
	}
	record.addStage("manifest", start)

	// Install dependencies so emitted code and the harness can resolve
	// shim packages.
	o.Console.Stagef("installing dependencies with %s", cfg.PackageManagerName())
	start = time.Now()
	if err := o.runFatal(ctx, cfg, "install"); err != nil {
		return nil, err
	}
	record.addStage("install", start)

	// One program, one optional check, three emissions.
	files := append([]transform.OutputFile{}, dist.Files...)
	if test != nil {
		files = append(files, test.Files...)
	}
	start = time.Now()
	adapter := compiler.NewAdapter(o.Compiler, o.Console, logger)
	if err := adapter.Run(ctx, files, o.Sink, compiler.Dirs{Types: "types", ESM: "esm", CJS: "cjs"}, cfg.TypeCheckEnabled()); err != nil {
		return nil, err
	}
	record.addStage("emit", start)
	o.Console.Successf("emitted declarations, esm and cjs trees")

	if test != nil {
		if err := o.runTests(ctx, cfg, dist, test, record, warnings); err != nil {
			return nil, err
		}
	}

	record.Warnings = warnings.List()
	recordJSON, err := record.Encode()
	if err != nil {
		return nil, err
	}
	if err := o.Sink.WriteFile(RecordFileName, string(recordJSON)); err != nil {
		return nil, err
	}

	o.Console.Divider()
	o.Console.Printf("%s@%s ready in %s\n", record.Package, record.Version, cfg.OutDir)
	return record, nil
}

// runTests generates the harness and exclusion manifest, executes the
// suite through the package manager, and cleans up test-derived output.
// A harness exit of exactly 1 means tests ran and some failed; that is
// recorded, not returned as an error, so callers can distinguish it from
// "tests could not run".
func (o *Orchestrator) runTests(ctx context.Context, cfg *config.Config, dist, test *transform.Result, record *Record, warnings *Warnings) error {
	entryPoints := test.EntryPoints
	if len(entryPoints) == 0 {
		entryPoints = dist.EntryPoints
	}

	shimPackage := ""
	if test.ShimUsed || dist.ShimUsed {
		shimPackage = shims.NamespacePackageName(cfg.Shims.Options())
	}

	start := time.Now()
	script, err := harness.Generate(harness.Params{
		EntryPoints:        entryPoints,
		ShimPackage:        shimPackage,
		TestInternalsEntry: shims.TestInternalsEntry,
	})
	if err != nil {
		return err
	}
	if err := o.Sink.WriteFile(harness.ScriptName, script); err != nil {
		return err
	}

	exclusions := testOutputPaths(test, entryPoints)
	if err := o.Sink.WriteFile(ExclusionFileName, strings.Join(exclusions, "\n")+"\n"); err != nil {
		return err
	}
	record.addStage("harness", start)

	o.Console.Stagef("running tests under both formats")
	start = time.Now()
	code, err := o.Proc.Run(ctx, cfg.OutDir, cfg.PackageManagerName(), "test")
	if err != nil {
		return err
	}
	record.TestsRan = true
	record.TestsPassed = code == 0
	record.addStage("test", start)

	switch {
	case code == 0:
		o.Console.Successf("all tests passed under both formats")
	case code == 1:
		o.Console.Errorf("tests completed with failures")
	default:
		return errors.NewProcessExitError(cfg.PackageManagerName()+" test", code)
	}

	if !cfg.KeepTestFiles {
		start = time.Now()
		for _, p := range testOutputPaths(test, entryPoints) {
			if err := o.Sink.Remove(p); err != nil {
				warnings.Warnf("cleanup: %v", err)
			}
		}
		record.addStage("cleanup", start)
	}
	return nil
}

// writeSources persists the transformed source trees under src/. Test
// sources land there too; they are covered by the exclusion manifest and
// by cleanup.
func (o *Orchestrator) writeSources(dist, test *transform.Result) error {
	for _, f := range dist.Files {
		if err := o.Sink.WriteFile("src/"+f.Path, f.Text); err != nil {
			return err
		}
	}
	if test == nil {
		return nil
	}
	for _, f := range test.Files {
		if err := o.Sink.WriteFile("src/"+f.Path, f.Text); err != nil {
			return err
		}
	}
	return nil
}

// runFatal runs a package-manager command whose non-zero exit aborts the
// pipeline.
func (o *Orchestrator) runFatal(ctx context.Context, cfg *config.Config, args ...string) error {
	code, err := o.Proc.Run(ctx, cfg.OutDir, cfg.PackageManagerName(), args...)
	if err != nil {
		return err
	}
	if code != 0 {
		display := strings.Join(append([]string{cfg.PackageManagerName()}, args...), " ")
		return errors.NewProcessExitError(display, code)
	}
	return nil
}

// testEntries rebases the configured test entry points when rootTestDir
// is set.
func testEntries(cfg *config.Config) []string {
	if cfg.RootTestDir == "" {
		return cfg.TestEntryPoints
	}
	out := make([]string, 0, len(cfg.TestEntryPoints))
	for _, ep := range cfg.TestEntryPoints {
		out = append(out, path.Join(cfg.RootTestDir, ep))
	}
	return out
}

// testOutputPaths lists every test-derived output path, both format
// variants plus the declarations tree and the harness script. The list
// doubles as the exclusion manifest and the cleanup set.
func testOutputPaths(test *transform.Result, entryPoints []string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, f := range test.Files {
		base := strings.TrimSuffix(f.Path, path.Ext(f.Path))
		add("src/" + f.Path)
		add("esm/" + base + ".js")
		add("cjs/" + base + ".js")
		add("types/" + base + ".d.ts")
	}
	for _, ep := range entryPoints {
		base := strings.TrimSuffix(ep, path.Ext(ep))
		add("esm/" + base + ".js")
		add("cjs/" + base + ".js")
		add("types/" + base + ".d.ts")
	}
	add(harness.ScriptName)
	return out
}

func surfaceWarnings(w *Warnings, msgs []string) {
	for _, msg := range msgs {
		w.Warnf("%s", msg)
	}
}
