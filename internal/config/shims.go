package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/crosspack/crosspack/internal/errors"
	"github.com/crosspack/crosspack/internal/shims"
)

// Option decodes a capability flag: the scalars off/on/test-only, plus
// boolean spellings of off and on.
type Option struct {
	opt shims.Option
}

// Value returns the decoded tagged variant.
func (o Option) Value() shims.Option { return o.opt }

// UnmarshalYAML decodes the scalar forms of a capability option.
func (o *Option) UnmarshalYAML(node *yaml.Node) error {
	kind, err := decodeScalarOption(node)
	if err != nil {
		return err
	}
	o.opt = shims.Option{Kind: kind}
	return nil
}

func decodeScalarOption(node *yaml.Node) (shims.OptionKind, error) {
	var b bool
	if err := node.Decode(&b); err == nil {
		if b {
			return shims.On, nil
		}
		return shims.Off, nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return shims.Off, errors.New(errors.ErrCodeConfigShimOption,
			"capability option must be one of off, on, test-only")
	}
	switch s {
	case "off", "":
		return shims.Off, nil
	case "on":
		return shims.On, nil
	case "test-only":
		return shims.TestOnly, nil
	default:
		return shims.Off, errors.New(errors.ErrCodeConfigShimOption,
			fmt.Sprintf("unknown capability option %q (expected off, on or test-only)", s))
	}
}

// NamespaceOption decodes the runtime-namespace flag, which additionally
// accepts the object form {testRegistration: true}. The object form always
// resolves test-scoped, whatever scope a scalar would have declared.
type NamespaceOption struct {
	opt shims.Option
}

// Value returns the decoded tagged variant.
func (o NamespaceOption) Value() shims.Option { return o.opt }

type namespaceObject struct {
	TestRegistration bool `yaml:"testRegistration"`
}

// UnmarshalYAML decodes either the scalar forms or the object form.
func (o *NamespaceOption) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		var obj namespaceObject
		if err := node.Decode(&obj); err != nil {
			return errors.Wrap(errors.ErrCodeConfigShimOption, "invalid namespace option object", err)
		}
		if !obj.TestRegistration {
			return errors.New(errors.ErrCodeConfigShimOption,
				"namespace option object must set testRegistration: true")
		}
		o.opt = shims.Option{Kind: shims.ScopedTest}
		return nil
	}
	kind, err := decodeScalarOption(node)
	if err != nil {
		return err
	}
	o.opt = shims.Option{Kind: kind}
	return nil
}

// Shims is the capability surface of the configuration file.
type Shims struct {
	Namespace  NamespaceOption    `yaml:"namespace"`
	Blob       Option             `yaml:"blob"`
	Crypto     Option             `yaml:"crypto"`
	Prompts    Option             `yaml:"prompts"`
	Timers     Option             `yaml:"timers"`
	Fetch      Option             `yaml:"fetch"`
	Package    *shims.Override    `yaml:"package"`
	Custom     []shims.Descriptor `yaml:"custom"`
	CustomTest []shims.Descriptor `yaml:"customTest"`
}

// Options maps the decoded surface to registry options.
func (s Shims) Options() shims.Options {
	return shims.Options{
		Namespace:         s.Namespace.Value(),
		Blob:              s.Blob.Value(),
		Crypto:            s.Crypto.Value(),
		Prompts:           s.Prompts.Value(),
		Timers:            s.Timers.Value(),
		Fetch:             s.Fetch.Value(),
		NamespaceOverride: s.Package,
		Custom:            s.Custom,
		CustomTest:        s.CustomTest,
	}
}
