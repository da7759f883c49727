package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/zeebo/blake3"
)

// Encode renders the descriptor as package.json text. The encoding is
// canonical: core fields in a fixed order, map values with sorted keys,
// two-space indentation, trailing newline. Encoding the same descriptor
// twice is byte-identical, which keeps rebuilds reproducible.
func Encode(d *Descriptor) ([]byte, error) {
	var buf bytes.Buffer
	enc := newObjectEncoder(&buf)

	enc.field("name", d.Name)
	enc.field("version", d.Version)
	if d.Module != "" {
		enc.field("module", d.Module)
	}
	if d.Main != "" {
		enc.field("main", d.Main)
	}
	if d.Types != "" {
		enc.field("types", d.Types)
	}
	if len(d.Exports) > 0 {
		enc.field("exports", exportsValue(d.Exports))
	}
	if len(d.Scripts) > 0 {
		enc.field("scripts", d.Scripts)
	}
	if len(d.Dependencies) > 0 {
		enc.field("dependencies", d.Dependencies)
	}
	if len(d.DevDependencies) > 0 {
		enc.field("devDependencies", d.DevDependencies)
	}

	extraKeys := make([]string, 0, len(d.Extra))
	for k := range d.Extra {
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		enc.field(k, d.Extra[k])
	}

	if err := enc.finish(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Digest computes the blake3 hex digest of the canonical encoding. It is
// recorded in the build record so repeated builds can be compared cheaply.
func Digest(d *Descriptor) (string, error) {
	encoded, err := Encode(d)
	if err != nil {
		return "", err
	}
	hasher := blake3.New()
	if _, err := hasher.Write(encoded); err != nil {
		return "", fmt.Errorf("hash descriptor: %w", err)
	}
	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

// exportsValue rebuilds the exports map with plain maps so conditional
// entries keep the types/import/require order via objectEncoder-free
// struct marshaling below.
func exportsValue(exports map[string]ExportTarget) json.Marshaler {
	return exportsMarshaler(exports)
}

type exportsMarshaler map[string]ExportTarget

func (m exportsMarshaler) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		// Struct marshaling keeps the declared types/import/require order.
		valJSON, err := json.Marshal(m[k])
		if err != nil {
			return nil, err
		}
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// objectEncoder writes one top-level JSON object with insertion-ordered
// fields and two-space indentation. encoding/json handles every value, so
// nested maps come out with sorted keys.
type objectEncoder struct {
	buf   *bytes.Buffer
	count int
	err   error
}

func newObjectEncoder(buf *bytes.Buffer) *objectEncoder {
	buf.WriteString("{")
	return &objectEncoder{buf: buf}
}

func (e *objectEncoder) field(key string, value any) {
	if e.err != nil {
		return
	}
	valJSON, err := json.MarshalIndent(value, "  ", "  ")
	if err != nil {
		e.err = fmt.Errorf("encode field %q: %w", key, err)
		return
	}
	keyJSON, err := json.Marshal(key)
	if err != nil {
		e.err = fmt.Errorf("encode key %q: %w", key, err)
		return
	}
	if e.count > 0 {
		e.buf.WriteByte(',')
	}
	e.buf.WriteString("\n  ")
	e.buf.Write(keyJSON)
	e.buf.WriteString(": ")
	e.buf.Write(valJSON)
	e.count++
}

func (e *objectEncoder) finish() error {
	if e.err != nil {
		return e.err
	}
	e.buf.WriteString("\n}\n")
	return nil
}
