package harness

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/crosspack/crosspack/internal/errors"
)

// ScriptName is the harness entry written at the output root.
const ScriptName = "test_runner.js"

// Params parameterize one generated runner script.
type Params struct {
	// EntryPoints are the transformed test entry-point paths, in transform
	// order. The script derives the cjs and esm module paths from each.
	EntryPoints []string

	// ShimPackage is the namespace shim package whose test-internals entry
	// the script requires. Empty when no shim was used; the script then
	// installs its own minimal registration global.
	ShimPackage string

	// TestInternalsEntry is the subpath of ShimPackage exposing registered
	// test definitions.
	TestInternalsEntry string
}

type scriptEntry struct {
	CJS string `json:"cjs"`
	ESM string `json:"esm"`
}

type scriptData struct {
	EntryPointsJSON string
	ShimRequireJSON string
	StatusPendingJS string
	StatusOKJS      string
	StatusFailJS    string
	StatusIgnoredJS string
	MarkerJS        string
	IndentJS        string
}

var scriptTemplate = template.Must(template.New("test_runner").Parse(runnerScript))

// Generate renders the standalone Node runner script. Everything
// interpolated into the script goes through JSON encoding, so entry-point
// paths and package names are escaped, never concatenated.
func Generate(p Params) (string, error) {
	if len(p.EntryPoints) == 0 {
		return "", errors.New(errors.ErrCodeHarnessGenerate, "harness generation requires at least one entry point")
	}

	entries := make([]scriptEntry, 0, len(p.EntryPoints))
	for _, ep := range p.EntryPoints {
		if strings.TrimSpace(ep) == "" {
			return "", errors.New(errors.ErrCodeHarnessGenerate, "entry point path must not be empty")
		}
		if strings.Contains(ep, "..") {
			return "", errors.New(errors.ErrCodeHarnessGenerate,
				fmt.Sprintf("entry point path escapes the output root: %s", ep))
		}
		entries = append(entries, scriptEntry{
			CJS: FormatPath(ep, FormatCJS),
			ESM: FormatPath(ep, FormatESM),
		})
	}

	data := scriptData{
		EntryPointsJSON: mustJSON(entries),
		StatusPendingJS: mustJSON(statusWordPending),
		StatusOKJS:      mustJSON(statusWordOK),
		StatusFailJS:    mustJSON(statusWordFail),
		StatusIgnoredJS: mustJSON(statusWordIgnored),
		MarkerJS:        mustJSON(Marker),
		IndentJS:        mustJSON(IndentUnit),
	}
	if p.ShimPackage != "" {
		entry := p.TestInternalsEntry
		if entry == "" {
			entry = "test-internals"
		}
		data.ShimRequireJSON = mustJSON(p.ShimPackage + "/" + entry)
	}

	var b strings.Builder
	if err := scriptTemplate.Execute(&b, data); err != nil {
		return "", errors.Wrap(errors.ErrCodeHarnessGenerate, "render runner script", err)
	}
	return b.String(), nil
}

func mustJSON(v any) string {
	out, err := json.Marshal(v)
	if err != nil {
		// Only strings and fixed structs reach here.
		panic(err)
	}
	return string(out)
}
