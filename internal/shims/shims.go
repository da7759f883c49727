// Package shims resolves the declarative capability surface of a build
// configuration into concrete shim package descriptors, scoped for
// distributed code and test-only code independently.
package shims

// OptionKind identifies how a capability option was configured.
type OptionKind int

const (
	// Off disables the capability shim entirely.
	Off OptionKind = iota
	// On injects the shim into distributed and test code.
	On
	// TestOnly injects the shim into test code only.
	TestOnly
	// ScopedTest is valid for the runtime-namespace capability only: it
	// injects a narrower shim exposing just the test-registration surface,
	// and always resolves test-scoped regardless of any broader setting.
	ScopedTest
)

// String returns the configuration spelling of the option kind.
func (k OptionKind) String() string {
	switch k {
	case On:
		return "on"
	case TestOnly:
		return "test-only"
	case ScopedTest:
		return "test-registration"
	default:
		return "off"
	}
}

// Option is the tagged variant behind each capability flag. The zero value
// is Off, so absent capabilities need no special handling.
type Option struct {
	Kind OptionKind
}

// Active reports whether the option contributes a descriptor anywhere.
func (o Option) Active() bool { return o.Kind != Off }

// Global names one global identifier a shim package provides. TypeOnly
// globals exist for the type-checker only and carry no runtime binding.
type Global struct {
	Name     string `json:"name" yaml:"name"`
	TypeOnly bool   `json:"typeOnly,omitempty" yaml:"typeOnly,omitempty"`
}

// Descriptor describes one shim package and the globals it supplies.
// Two descriptors sharing a package name are one dependency entry; the
// first occurrence wins on version when the manifest is generated.
type Descriptor struct {
	Package string   `json:"package" yaml:"package"`
	Version string   `json:"version" yaml:"version"`
	Globals []Global `json:"globals" yaml:"globals"`
}

// Override replaces the package coordinates of the runtime-namespace shim.
type Override struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// Options is the full capability surface of one build configuration.
// Field order mirrors the fixed evaluation order of the registry.
type Options struct {
	// Namespace controls the runtime-namespace shim. ScopedTest narrows it
	// to the test-registration surface.
	Namespace Option

	// Blob controls the binary-blob shim.
	Blob Option

	// Crypto controls the crypto-primitive shim.
	Crypto Option

	// Prompts controls the interactive prompt shims.
	Prompts Option

	// Timers controls the timer shims.
	Timers Option

	// Fetch controls the fetch-stack shims (fetch, File, FormData,
	// Headers, Request, Response).
	Fetch Option

	// NamespaceOverride replaces the namespace shim package coordinates.
	NamespaceOverride *Override

	// Custom shims are appended verbatim to the distributed list.
	Custom []Descriptor

	// CustomTest shims are appended verbatim to the test list.
	CustomTest []Descriptor
}

// Resolved holds the ordered descriptor lists for one configuration.
type Resolved struct {
	// Dist contains shims injected into distributed code.
	Dist []Descriptor

	// Test contains shims injected into test code. Dist shims are repeated
	// here because test code is compiled with them too.
	Test []Descriptor
}

// Empty reports whether no shim is active in either scope.
func (r Resolved) Empty() bool {
	return len(r.Dist) == 0 && len(r.Test) == 0
}
