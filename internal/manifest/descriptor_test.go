package manifest

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosspack/crosspack/internal/shims"
	"github.com/crosspack/crosspack/internal/transform"
)

func baseInput() Input {
	return Input{
		Transform: &transform.Result{
			EntryPoints: []string{"mod.ts"},
			Dependencies: []transform.Dependency{
				{Name: "chalk", Version: "^5.0.0"},
			},
		},
		Package: map[string]any{
			"name":    "@acme/widget",
			"version": "1.2.3",
		},
		HarnessScript: "test_runner.js",
	}
}

func TestBuild_EntryPointFields(t *testing.T) {
	d, err := Build(baseInput())
	require.NoError(t, err)

	assert.Equal(t, "@acme/widget", d.Name)
	assert.Equal(t, "1.2.3", d.Version)
	assert.Equal(t, "./esm/mod.js", d.Module)
	assert.Equal(t, "./cjs/mod.js", d.Main)
	assert.Equal(t, "./types/mod.d.ts", d.Types)

	root := d.Exports["."]
	assert.Equal(t, "./types/mod.d.ts", root.Types)
	assert.Equal(t, "./esm/mod.js", root.Import)
	assert.Equal(t, "./cjs/mod.js", root.Require)
}

func TestBuild_RequiresNameAndVersion(t *testing.T) {
	in := baseInput()
	in.Package = map[string]any{"name": "@acme/widget"}
	_, err := Build(in)
	assert.Error(t, err)
}

func TestBuild_DependencyPrecedence(t *testing.T) {
	in := baseInput()
	in.Transform.Dependencies = []transform.Dependency{
		{Name: "chalk", Version: "^5.0.0"},
		{Name: "node-fetch", Version: "^2.0.0"},
	}
	in.Mappings = map[string]transform.Mapping{
		"https://deps.example/fetch.ts": {Name: "node-fetch", Version: "^3.0.0"},
		"https://deps.example/plain.ts": {Name: "plain"}, // no version, no entry
	}
	in.Transform.ShimUsed = true
	in.Shims = shims.Resolved{
		Dist: []shims.Descriptor{
			{Package: "node-fetch", Version: "^1.0.0"},
		},
	}
	in.Package["dependencies"] = map[string]any{
		"chalk": "^6.0.0",
	}

	d, err := Build(in)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"chalk":      "^6.0.0", // user override wins last
		"node-fetch": "^1.0.0", // shim stage overrides the mapping stage
	}, d.Dependencies)
	assert.NotContains(t, d.Dependencies, "plain")
}

func TestBuild_ShimsExcludedWhenUnused(t *testing.T) {
	in := baseInput()
	in.Shims = shims.Resolved{
		Dist: []shims.Descriptor{{Package: shims.TimersPackage, Version: shims.TimersVersion}},
	}
	in.Transform.ShimUsed = false

	d, err := Build(in)
	require.NoError(t, err)
	assert.NotContains(t, d.Dependencies, shims.TimersPackage)
}

func TestBuild_ShimDescriptorsCollapseFirstWins(t *testing.T) {
	in := baseInput()
	in.Transform.ShimUsed = true
	in.Shims = shims.Resolved{
		Dist: []shims.Descriptor{
			{Package: "@crosspack/shim-fetch", Version: "~0.6.0"},
			{Package: "@crosspack/shim-fetch", Version: "~0.9.0"},
		},
	}

	d, err := Build(in)
	require.NoError(t, err)
	assert.Equal(t, "~0.6.0", d.Dependencies["@crosspack/shim-fetch"])
}

func TestBuild_DevDependencies(t *testing.T) {
	in := baseInput()
	in.Transform.ShimUsed = true
	in.Shims = shims.Resolved{
		Dist: []shims.Descriptor{{Package: shims.NamespacePackage, Version: shims.NamespaceVersion}},
		Test: []shims.Descriptor{
			{Package: shims.NamespacePackage, Version: shims.NamespaceVersion},
			{Package: shims.TimersPackage, Version: shims.TimersVersion},
		},
	}
	in.Test = &transform.Result{
		Dependencies: []transform.Dependency{{Name: "sinon", Version: "^17.0.0"}},
		ShimUsed:     true,
	}

	d, err := Build(in)
	require.NoError(t, err)

	// The namespace shim is already a runtime dependency; dev dependencies
	// must not repeat it.
	assert.Contains(t, d.Dependencies, shims.NamespacePackage)
	assert.NotContains(t, d.DevDependencies, shims.NamespacePackage)
	assert.Equal(t, shims.TimersVersion, d.DevDependencies[shims.TimersPackage])
	assert.Equal(t, "^17.0.0", d.DevDependencies["sinon"])
}

func TestBuild_NoDevDependenciesWithoutTests(t *testing.T) {
	d, err := Build(baseInput())
	require.NoError(t, err)
	assert.Nil(t, d.DevDependencies)
	assert.Nil(t, d.Scripts)
}

func TestBuild_TestScriptDefaultAndOverride(t *testing.T) {
	in := baseInput()
	in.Test = &transform.Result{}

	d, err := Build(in)
	require.NoError(t, err)
	assert.Equal(t, "node test_runner.js", d.Scripts["test"])

	in.Package["scripts"] = map[string]any{
		"test":  "vitest",
		"build": "tsc",
	}
	d, err = Build(in)
	require.NoError(t, err)
	assert.Equal(t, "vitest", d.Scripts["test"])
	assert.Equal(t, "tsc", d.Scripts["build"])
}

func TestBuild_UserEntryPointFieldsWinOutright(t *testing.T) {
	in := baseInput()
	in.Package["main"] = "./custom/index.cjs"
	in.Package["types"] = "./custom/index.d.ts"

	d, err := Build(in)
	require.NoError(t, err)
	assert.Equal(t, "./custom/index.cjs", d.Main)
	assert.Equal(t, "./custom/index.d.ts", d.Types)
	assert.Equal(t, "./custom/index.cjs", d.Exports["."].Require)
	assert.Equal(t, "./esm/mod.js", d.Exports["."].Import)
}

func TestBuild_ExtraFieldsPassThrough(t *testing.T) {
	in := baseInput()
	in.Package["license"] = "MIT"
	in.Package["repository"] = map[string]any{"type": "git", "url": "https://example.com/widget.git"}

	d, err := Build(in)
	require.NoError(t, err)
	assert.Equal(t, "MIT", d.Extra["license"])
}

func TestEncode_Deterministic(t *testing.T) {
	in := baseInput()
	in.Package["license"] = "MIT"
	in.Package["keywords"] = []any{"widget", "acme"}
	in.Test = &transform.Result{
		Dependencies: []transform.Dependency{{Name: "sinon", Version: "^17.0.0"}},
	}

	first, err := Build(in)
	require.NoError(t, err)
	second, err := Build(in)
	require.NoError(t, err)

	a, err := Encode(first)
	require.NoError(t, err)
	b, err := Encode(second)
	require.NoError(t, err)

	assert.Equal(t, string(a), string(b))

	// Valid JSON with the expected shape.
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(a, &decoded))
	assert.Equal(t, "@acme/widget", decoded["name"])
	assert.Equal(t, "MIT", decoded["license"])
}

func TestEncode_CoreFieldOrder(t *testing.T) {
	d, err := Build(baseInput())
	require.NoError(t, err)

	encoded, err := Encode(d)
	require.NoError(t, err)

	text := string(encoded)
	nameIdx := indexOf(t, text, `"name"`)
	versionIdx := indexOf(t, text, `"version"`)
	moduleIdx := indexOf(t, text, `"module"`)
	mainIdx := indexOf(t, text, `"main"`)

	assert.Less(t, nameIdx, versionIdx)
	assert.Less(t, versionIdx, moduleIdx)
	assert.Less(t, moduleIdx, mainIdx)
}

func indexOf(t *testing.T, s, sub string) int {
	t.Helper()
	idx := strings.Index(s, sub)
	if idx < 0 {
		t.Fatalf("substring %q not found", sub)
	}
	return idx
}

func TestDigest_StableAcrossRebuilds(t *testing.T) {
	first, err := Build(baseInput())
	require.NoError(t, err)
	second, err := Build(baseInput())
	require.NoError(t, err)

	d1, err := Digest(first)
	require.NoError(t, err)
	d2, err := Digest(second)
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 64) // blake3 produces 32 bytes = 64 hex chars
}
