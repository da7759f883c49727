package shims

// Default shim package coordinates. The namespace package can be replaced
// with Options.NamespaceOverride; the rest are fixed per capability.
const (
	NamespacePackage     = "@crosspack/shim-runtime"
	NamespaceVersion     = "~0.12.0"
	NamespaceTestPackage = "@crosspack/shim-runtime-test"
	NamespaceTestVersion = "~0.12.0"
	BlobPackage          = "@crosspack/shim-blob"
	BlobVersion          = "~0.5.0"
	CryptoPackage        = "@crosspack/shim-crypto"
	CryptoVersion        = "~0.4.0"
	PromptsPackage       = "@crosspack/shim-prompts"
	PromptsVersion       = "~0.2.0"
	TimersPackage        = "@crosspack/shim-timers"
	TimersVersion        = "~0.3.0"
	FetchPackage         = "@crosspack/shim-fetch"
	FetchVersion         = "~0.6.0"
)

// TestInternalsEntry is the subpath of the namespace shim package that the
// generated harness requires to reach registered test definitions.
const TestInternalsEntry = "test-internals"

func namespaceDescriptor(o *Override) Descriptor {
	d := Descriptor{
		Package: NamespacePackage,
		Version: NamespaceVersion,
		Globals: []Global{
			{Name: "Runtime"},
			{Name: "RuntimeGlobal", TypeOnly: true},
		},
	}
	if o != nil {
		d.Package = o.Name
		d.Version = o.Version
	}
	return d
}

// namespaceTestDescriptor is the narrow form produced by the ScopedTest
// option: it exposes the test-registration surface and nothing else.
func namespaceTestDescriptor(o *Override) Descriptor {
	d := Descriptor{
		Package: NamespaceTestPackage,
		Version: NamespaceTestVersion,
		Globals: []Global{
			{Name: "RuntimeTest"},
		},
	}
	if o != nil {
		d.Package = o.Name
		d.Version = o.Version
	}
	return d
}

func blobDescriptor() Descriptor {
	return Descriptor{
		Package: BlobPackage,
		Version: BlobVersion,
		Globals: []Global{{Name: "Blob"}},
	}
}

func cryptoDescriptor() Descriptor {
	return Descriptor{
		Package: CryptoPackage,
		Version: CryptoVersion,
		Globals: []Global{
			{Name: "crypto"},
			{Name: "Crypto", TypeOnly: true},
			{Name: "CryptoKey", TypeOnly: true},
			{Name: "SubtleCrypto", TypeOnly: true},
		},
	}
}

func promptsDescriptor() Descriptor {
	return Descriptor{
		Package: PromptsPackage,
		Version: PromptsVersion,
		Globals: []Global{
			{Name: "alert"},
			{Name: "confirm"},
			{Name: "prompt"},
		},
	}
}

func timersDescriptor() Descriptor {
	return Descriptor{
		Package: TimersPackage,
		Version: TimersVersion,
		Globals: []Global{
			{Name: "setTimeout"},
			{Name: "setInterval"},
		},
	}
}

func fetchDescriptor() Descriptor {
	return Descriptor{
		Package: FetchPackage,
		Version: FetchVersion,
		Globals: []Global{
			{Name: "fetch"},
			{Name: "File"},
			{Name: "FormData"},
			{Name: "Headers"},
			{Name: "Request"},
			{Name: "Response"},
		},
	}
}

// Resolve maps the capability surface to ordered descriptor lists. It is a
// pure function: no deduplication happens here. Evaluation order is fixed
// (namespace, blob, crypto, prompts, timers, fetch, custom, custom test)
// because downstream consumers attribute shims in source order and resolve
// version conflicts first-wins on package name.
func Resolve(opts Options) Resolved {
	var r Resolved

	appendFor := func(o Option, d Descriptor) {
		switch o.Kind {
		case On:
			r.Dist = append(r.Dist, d)
			r.Test = append(r.Test, d)
		case TestOnly:
			r.Test = append(r.Test, d)
		}
	}

	// The scoped form always resolves test-only, even if the option was
	// spelled with an "on" scope around the object form.
	if opts.Namespace.Kind == ScopedTest {
		r.Test = append(r.Test, namespaceTestDescriptor(opts.NamespaceOverride))
	} else {
		appendFor(opts.Namespace, namespaceDescriptor(opts.NamespaceOverride))
	}

	appendFor(opts.Blob, blobDescriptor())
	appendFor(opts.Crypto, cryptoDescriptor())
	appendFor(opts.Prompts, promptsDescriptor())
	appendFor(opts.Timers, timersDescriptor())
	appendFor(opts.Fetch, fetchDescriptor())

	r.Dist = append(r.Dist, opts.Custom...)
	r.Test = append(r.Test, opts.CustomTest...)

	return r
}

// NamespacePackageName returns the package whose test-internals entry the
// generated harness requires, honoring any override.
func NamespacePackageName(opts Options) string {
	if opts.NamespaceOverride != nil {
		return opts.NamespaceOverride.Name
	}
	if opts.Namespace.Kind == ScopedTest {
		return NamespaceTestPackage
	}
	return NamespacePackage
}
