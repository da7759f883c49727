// Package transform defines the contract with the external module-graph
// transformer: the tool that rewrites import specifiers and produces the
// intermediate source files this pipeline compiles. The transformer itself
// is a collaborator; this package models its inputs and outputs and the
// filtering applied to test-scoped results.
package transform

import "context"

// Dependency is one npm dependency the transformed code requires.
type Dependency struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// OutputFile is a virtual source file produced by the transformer,
// belonging to either the distributed entry points or the test set.
type OutputFile struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

// Mapping redirects a source specifier to an npm package. Mappings without
// a version contribute no dependency entry to the generated manifest.
type Mapping struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Request is the input to one transformer invocation.
type Request struct {
	// EntryPoints are the source locators to transform, in configuration
	// order. For the test pass this includes the test entry points too.
	EntryPoints []string `json:"entryPoints"`

	// ShimPackage is the package whose globals replace shimmed built-ins.
	ShimPackage string `json:"shimPackage,omitempty"`

	// Mappings redirect source specifiers to npm packages.
	Mappings map[string]Mapping `json:"mappings,omitempty"`
}

// Result is the output of one transformer invocation.
type Result struct {
	// EntryPoints are the emitted entry-point paths, in transform order.
	EntryPoints []string `json:"entryPoints"`

	// Files are the produced virtual source files.
	Files []OutputFile `json:"files"`

	// Dependencies are the npm dependencies the transformed code imports.
	Dependencies []Dependency `json:"dependencies"`

	// ShimUsed reports whether any shimmed global was actually referenced.
	ShimUsed bool `json:"shimUsed"`

	// Warnings are non-fatal messages to surface to the user.
	Warnings []string `json:"warnings,omitempty"`
}

// Transformer is the external module-graph transformer.
type Transformer interface {
	Transform(ctx context.Context, req Request) (*Result, error)
}

// FilterTest removes from the test result everything already present in the
// dist result. The transformer produces the test result as a superset of
// the dist result; without filtering every file, entry point and dependency
// of the distributed build would be duplicated in the test set.
func FilterTest(dist, test *Result) *Result {
	if test == nil {
		return nil
	}

	distEntries := make(map[string]bool, len(dist.EntryPoints))
	for _, ep := range dist.EntryPoints {
		distEntries[ep] = true
	}
	distFiles := make(map[string]bool, len(dist.Files))
	for _, f := range dist.Files {
		distFiles[f.Path] = true
	}
	distDeps := make(map[string]bool, len(dist.Dependencies))
	for _, d := range dist.Dependencies {
		distDeps[d.Name] = true
	}

	filtered := &Result{
		ShimUsed: test.ShimUsed,
		Warnings: test.Warnings,
	}
	for _, ep := range test.EntryPoints {
		if !distEntries[ep] {
			filtered.EntryPoints = append(filtered.EntryPoints, ep)
		}
	}
	for _, f := range test.Files {
		if !distFiles[f.Path] {
			filtered.Files = append(filtered.Files, f)
		}
	}
	for _, d := range test.Dependencies {
		if !distDeps[d.Name] {
			filtered.Dependencies = append(filtered.Dependencies, d)
		}
	}
	return filtered
}
