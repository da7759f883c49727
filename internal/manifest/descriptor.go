// Package manifest synthesizes the package.json descriptor for the dual
// output package: dependency merging across transform results, shim usage
// and user overrides, entry-point fields for the three emitted trees, and
// a byte-deterministic encoding for reproducible builds.
package manifest

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/crosspack/crosspack/internal/shims"
	"github.com/crosspack/crosspack/internal/transform"
)

// ExportTarget is the conditional export entry for one subpath.
type ExportTarget struct {
	Types   string `json:"types,omitempty"`
	Import  string `json:"import,omitempty"`
	Require string `json:"require,omitempty"`
}

// Descriptor is the final package manifest. Rebuilding it from identical
// inputs yields a byte-identical encoding.
type Descriptor struct {
	Name            string
	Version         string
	Module          string
	Main            string
	Types           string
	Exports         map[string]ExportTarget
	Scripts         map[string]string
	Dependencies    map[string]string
	DevDependencies map[string]string

	// Extra carries user-supplied manifest fields that are not part of the
	// core surface. They encode after the core fields, sorted by key.
	Extra map[string]any
}

// Input is everything descriptor generation depends on. Build is a pure
// function of this value.
type Input struct {
	// Transform is the distributed transform result.
	Transform *transform.Result

	// Test is the filtered test transform result, nil when not testing.
	Test *transform.Result

	// Shims is the resolved shim surface for this configuration.
	Shims shims.Resolved

	// Mappings are the specifier mappings from the configuration; only
	// mappings declaring a version contribute dependency entries.
	Mappings map[string]transform.Mapping

	// Package is the user-supplied manifest template. The name and version
	// fields are required; any recognized field overrides the derived
	// value outright, and everything else passes through to Extra.
	Package map[string]any

	// HarnessScript is the harness entry the default test script runs.
	HarnessScript string
}

// Build merges the transform results, shim usage, specifier mappings and
// user overrides into the final descriptor.
func Build(in Input) (*Descriptor, error) {
	if in.Transform == nil || len(in.Transform.EntryPoints) == 0 {
		return nil, fmt.Errorf("transform result has no entry points")
	}

	tmpl := in.Package
	if tmpl == nil {
		tmpl = map[string]any{}
	}
	name, _ := tmpl["name"].(string)
	version, _ := tmpl["version"].(string)
	if name == "" || version == "" {
		return nil, fmt.Errorf("package template must declare name and version")
	}

	first := in.Transform.EntryPoints[0]
	d := &Descriptor{
		Name:    name,
		Version: version,
		Module:  "./esm/" + rewriteExt(first, ".js"),
		Main:    "./cjs/" + rewriteExt(first, ".js"),
		Types:   "./types/" + rewriteExt(first, ".d.ts"),
	}
	d.Exports = map[string]ExportTarget{
		".": {Types: d.Types, Import: d.Module, Require: d.Main},
	}

	d.Dependencies = buildDependencies(in)
	if in.Test != nil {
		d.DevDependencies = buildDevDependencies(in, d.Dependencies)
		d.Scripts = map[string]string{"test": "node " + in.HarnessScript}
	}

	applyTemplate(d, tmpl)
	return d, nil
}

// buildDependencies merges runtime dependencies. Precedence, later wins on
// name collision: transform deps, versioned mapping deps, shim packages
// (only when the distributed build used a shim), user overrides (applied
// in applyTemplate).
func buildDependencies(in Input) map[string]string {
	deps := map[string]string{}
	for _, dep := range in.Transform.Dependencies {
		deps[dep.Name] = dep.Version
	}
	for _, m := range sortedMappings(in.Mappings) {
		if m.Version != "" {
			deps[m.Name] = m.Version
		}
	}
	if in.Transform.ShimUsed {
		for name, version := range dedupeShims(in.Shims.Dist) {
			deps[name] = version
		}
	}
	return deps
}

// buildDevDependencies merges test-only dependencies. A shim package that
// is already a runtime dependency never reappears here.
func buildDevDependencies(in Input, runtime map[string]string) map[string]string {
	deps := map[string]string{}
	for _, dep := range in.Test.Dependencies {
		deps[dep.Name] = dep.Version
	}
	if in.Test.ShimUsed {
		for name, version := range dedupeShims(in.Shims.Test) {
			if _, exists := runtime[name]; !exists {
				deps[name] = version
			}
		}
	}
	return deps
}

// dedupeShims collapses descriptors sharing a package name into one entry;
// the first occurrence wins for version.
func dedupeShims(descriptors []shims.Descriptor) map[string]string {
	out := map[string]string{}
	for _, d := range descriptors {
		if _, seen := out[d.Package]; !seen {
			out[d.Package] = d.Version
		}
	}
	return out
}

// applyTemplate folds the user manifest template into the descriptor.
// Entry-point fields win outright; scripts and dependency maps override
// per key; unknown fields pass through.
func applyTemplate(d *Descriptor, tmpl map[string]any) {
	for key, value := range tmpl {
		switch key {
		case "name", "version":
			// Already consumed.
		case "main":
			if s, ok := value.(string); ok {
				d.Main = s
				patchExport(d, func(t *ExportTarget) { t.Require = s })
			}
		case "module":
			if s, ok := value.(string); ok {
				d.Module = s
				patchExport(d, func(t *ExportTarget) { t.Import = s })
			}
		case "types":
			if s, ok := value.(string); ok {
				d.Types = s
				patchExport(d, func(t *ExportTarget) { t.Types = s })
			}
		case "exports":
			if m, ok := value.(map[string]any); ok {
				d.Exports = parseExports(m)
			}
		case "scripts":
			if m, ok := value.(map[string]any); ok {
				if d.Scripts == nil {
					d.Scripts = map[string]string{}
				}
				for k, v := range m {
					if s, ok := v.(string); ok {
						d.Scripts[k] = s
					}
				}
			}
		case "dependencies":
			overrideDeps(&d.Dependencies, value)
		case "devDependencies":
			overrideDeps(&d.DevDependencies, value)
		default:
			if d.Extra == nil {
				d.Extra = map[string]any{}
			}
			d.Extra[key] = value
		}
	}
}

func overrideDeps(target *map[string]string, value any) {
	m, ok := value.(map[string]any)
	if !ok {
		return
	}
	if *target == nil {
		*target = map[string]string{}
	}
	for k, v := range m {
		if s, ok := v.(string); ok {
			(*target)[k] = s
		}
	}
}

func parseExports(m map[string]any) map[string]ExportTarget {
	out := map[string]ExportTarget{}
	for subpath, v := range m {
		switch tv := v.(type) {
		case string:
			out[subpath] = ExportTarget{Import: tv, Require: tv}
		case map[string]any:
			var target ExportTarget
			if s, ok := tv["types"].(string); ok {
				target.Types = s
			}
			if s, ok := tv["import"].(string); ok {
				target.Import = s
			}
			if s, ok := tv["require"].(string); ok {
				target.Require = s
			}
			out[subpath] = target
		}
	}
	return out
}

func patchExport(d *Descriptor, patch func(*ExportTarget)) {
	target := d.Exports["."]
	patch(&target)
	d.Exports["."] = target
}

// rewriteExt swaps an entry point's source extension for the emitted one.
func rewriteExt(entryPoint, ext string) string {
	base := strings.TrimSuffix(entryPoint, path.Ext(entryPoint))
	return base + ext
}

// sortedMappings returns mappings in a stable order so dependency merging
// never depends on map iteration.
func sortedMappings(mappings map[string]transform.Mapping) []transform.Mapping {
	keys := make([]string, 0, len(mappings))
	for k := range mappings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]transform.Mapping, 0, len(keys))
	for _, k := range keys {
		out = append(out, mappings[k])
	}
	return out
}
