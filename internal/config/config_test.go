package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosspack/crosspack/internal/errors"
	"github.com/crosspack/crosspack/internal/shims"
	"github.com/crosspack/crosspack/internal/transform"
)

const validConfig = `
entryPoints:
  - mod.ts
testEntryPoints:
  - mod.test.ts
outDir: ./npm
test: true
transformer:
  command: [crosspack-transform]
compiler:
  command: [crosspack-tsc]
shims:
  namespace: on
  timers: test-only
  fetch: off
mappings:
  "https://deps.example/chalk.ts":
    name: chalk
    version: ^5.0.0
package:
  name: "@acme/widget"
  version: 1.2.3
  license: MIT
`

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crosspack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, []string{"mod.ts"}, cfg.EntryPoints)
	assert.Equal(t, "./npm", cfg.OutDir)
	assert.True(t, cfg.Test)
	assert.True(t, cfg.TypeCheckEnabled())
	assert.Equal(t, "npm", cfg.PackageManagerName())

	opts := cfg.Shims.Options()
	assert.Equal(t, shims.On, opts.Namespace.Kind)
	assert.Equal(t, shims.TestOnly, opts.Timers.Kind)
	assert.Equal(t, shims.Off, opts.Fetch.Kind)

	assert.Equal(t, "chalk", cfg.Mappings["https://deps.example/chalk.ts"].Name)
	assert.Equal(t, "MIT", cfg.Package["license"])
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)

	var cerr *errors.CrosspackError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, errors.ErrCodeConfigNotFound, cerr.Code)
}

func TestLoad_NamespaceObjectForm(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
entryPoints: [mod.ts]
outDir: ./npm
transformer: {command: [tf]}
compiler: {command: [tc]}
shims:
  namespace:
    testRegistration: true
package: {name: x, version: 1.0.0}
`))
	require.NoError(t, err)
	assert.Equal(t, shims.ScopedTest, cfg.Shims.Options().Namespace.Kind)
}

func TestLoad_NamespaceObjectFormMustBeTrue(t *testing.T) {
	_, err := Load(writeConfig(t, `
entryPoints: [mod.ts]
outDir: ./npm
transformer: {command: [tf]}
compiler: {command: [tc]}
shims:
  namespace:
    testRegistration: false
package: {name: x, version: 1.0.0}
`))
	assert.Error(t, err)
}

func TestLoad_BooleanOptionSpellings(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
entryPoints: [mod.ts]
outDir: ./npm
transformer: {command: [tf]}
compiler: {command: [tc]}
shims:
  blob: true
  crypto: false
package: {name: x, version: 1.0.0}
`))
	require.NoError(t, err)
	assert.Equal(t, shims.On, cfg.Shims.Options().Blob.Kind)
	assert.Equal(t, shims.Off, cfg.Shims.Options().Crypto.Kind)
}

func TestLoad_UnknownOptionValue(t *testing.T) {
	_, err := Load(writeConfig(t, `
entryPoints: [mod.ts]
outDir: ./npm
transformer: {command: [tf]}
compiler: {command: [tc]}
shims:
  timers: sometimes
package: {name: x, version: 1.0.0}
`))
	assert.Error(t, err)
}

func TestValidate_Errors(t *testing.T) {
	base := func() *Config {
		return &Config{
			EntryPoints: []string{"mod.ts"},
			OutDir:      "./npm",
			Transformer: Tool{Command: []string{"tf"}},
			Compiler:    Tool{Command: []string{"tc"}},
			Package:     map[string]any{"name": "x", "version": "1.0.0"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		code   errors.ErrorCode
	}{
		{"no entry points", func(c *Config) { c.EntryPoints = nil }, errors.ErrCodeConfigNoEntryPoints},
		{"no out dir", func(c *Config) { c.OutDir = "" }, errors.ErrCodeConfigNoOutDir},
		{"test without entries", func(c *Config) { c.Test = true }, errors.ErrCodeConfigTestEntries},
		{"keepTestFiles without test", func(c *Config) { c.KeepTestFiles = true }, errors.ErrCodeConfigTestEntries},
		{"rootTestDir without test", func(c *Config) { c.RootTestDir = "tests" }, errors.ErrCodeConfigTestEntries},
		{"no transformer", func(c *Config) { c.Transformer.Command = nil }, errors.ErrCodeConfigInvalid},
		{"no package name", func(c *Config) { delete(c.Package, "name") }, errors.ErrCodeConfigInvalid},
		{"override without name", func(c *Config) { c.Shims.Package = &shims.Override{Version: "1.0.0"} }, errors.ErrCodeConfigShimOption},
		{"mapping without name", func(c *Config) {
			c.Mappings = map[string]transform.Mapping{"x": {}}
		}, errors.ErrCodeConfigMapping},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var cerr *errors.CrosspackError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.code, cerr.Code)
		})
	}
}
