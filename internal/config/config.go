// Package config loads and validates the build configuration surface:
// entry points, output directory, build flags, shim capability options,
// specifier mappings and the package manifest template.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/crosspack/crosspack/internal/errors"
	"github.com/crosspack/crosspack/internal/transform"
)

// Tool configures one external collaborator executable.
type Tool struct {
	Command []string `yaml:"command"`
}

// Config is the full input surface of one build.
type Config struct {
	// EntryPoints are the distributed source locators, in order.
	EntryPoints []string `yaml:"entryPoints"`

	// TestEntryPoints are the test-suite roots.
	TestEntryPoints []string `yaml:"testEntryPoints"`

	// OutDir is the output directory the package is built into.
	OutDir string `yaml:"outDir"`

	// TypeCheck enables the type-check stage. Defaults to true.
	TypeCheck *bool `yaml:"typeCheck"`

	// Test enables transform, harness generation and execution of tests.
	Test bool `yaml:"test"`

	// KeepTestFiles skips the cleanup of test-derived output after the run.
	KeepTestFiles bool `yaml:"keepTestFiles"`

	// RootTestDir rebases test entry points before transforming.
	RootTestDir string `yaml:"rootTestDir"`

	// PackageManager is the install/test process. Defaults to npm.
	PackageManager string `yaml:"packageManager"`

	// Transformer is the external module-graph transformer.
	Transformer Tool `yaml:"transformer"`

	// Compiler is the external type-check/emission service.
	Compiler Tool `yaml:"compiler"`

	// Shims is the capability surface.
	Shims Shims `yaml:"shims"`

	// Mappings redirect source specifiers to npm packages.
	Mappings map[string]transform.Mapping `yaml:"mappings"`

	// Package is the manifest template; name and version are required.
	Package map[string]any `yaml:"package"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewConfigNotFoundError(path)
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "read configuration", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "parse configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration before any side effect happens.
func (c *Config) Validate() error {
	if len(c.EntryPoints) == 0 {
		return errors.NewNoEntryPointsError()
	}
	for _, ep := range c.EntryPoints {
		if ep == "" {
			return errors.New(errors.ErrCodeConfigNoEntryPoints, "entry point path must not be empty")
		}
	}
	if c.OutDir == "" {
		return errors.New(errors.ErrCodeConfigNoOutDir, "outDir is required")
	}
	if c.Test && len(c.TestEntryPoints) == 0 {
		return errors.New(errors.ErrCodeConfigTestEntries,
			"test is enabled but no testEntryPoints are configured").
			WithSuggestion("Add testEntryPoints or disable test")
	}
	if !c.Test {
		if c.KeepTestFiles {
			return errors.New(errors.ErrCodeConfigTestEntries, "keepTestFiles requires test to be enabled")
		}
		if c.RootTestDir != "" {
			return errors.New(errors.ErrCodeConfigTestEntries, "rootTestDir requires test to be enabled")
		}
	}
	if len(c.Transformer.Command) == 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "transformer.command is required")
	}
	if len(c.Compiler.Command) == 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "compiler.command is required")
	}
	if c.Package == nil {
		return errors.New(errors.ErrCodeConfigInvalid, "package template is required")
	}
	name, _ := c.Package["name"].(string)
	version, _ := c.Package["version"].(string)
	if name == "" || version == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "package template must declare name and version")
	}
	if c.Shims.Package != nil && c.Shims.Package.Name == "" {
		return errors.New(errors.ErrCodeConfigShimOption, "shims.package override must declare a name")
	}
	for spec, m := range c.Mappings {
		if m.Name == "" {
			return errors.New(errors.ErrCodeConfigMapping,
				fmt.Sprintf("mapping for %q must declare a package name", spec))
		}
	}
	return nil
}

// TypeCheckEnabled resolves the typeCheck flag with its default.
func (c *Config) TypeCheckEnabled() bool {
	return c.TypeCheck == nil || *c.TypeCheck
}

// PackageManagerName resolves the package manager with its default.
func (c *Config) PackageManagerName() string {
	if c.PackageManager == "" {
		return "npm"
	}
	return c.PackageManager
}
