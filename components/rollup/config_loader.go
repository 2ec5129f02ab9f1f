package rollup

import (
	"fmt"
	"strings"

	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix namespaces the environment variables read by LoadConfig.
const EnvPrefix = "ROLLUP_"

// LoadConfig layers a configuration document from defaults, the YAML file at
// path (optional), ROLLUP_* environment variables and explicitly set flags, in
// increasing precedence. The file layer is checked by validator; nil means a
// JSONSchemaValidator over ConfigSchema.
func LoadConfig(path string, flags *pflag.FlagSet, validator ConfigValidator) (*ConfigDocument, error) {
	if validator == nil {
		validator = NewJSONSchemaValidator()
	}
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(ConfigDefaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("rollup: load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), koanfyaml.Parser()); err != nil {
			return nil, fmt.Errorf("rollup: read config %s: %w", path, err)
		}
		if err := validator.Validate(k.Raw()); err != nil {
			return nil, fmt.Errorf("rollup: config %s: %w", path, err)
		}
	}

	// ROLLUP_CHILD_OBJECT -> child_object
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("rollup: load env: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("rollup: load flags: %w", err)
		}
	}

	var doc ConfigDocument
	if err := k.Unmarshal("", &doc); err != nil {
		return nil, fmt.Errorf("rollup: decode config: %w", err)
	}
	doc.Source = path
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ConfigFlags registers the flags LoadConfig understands on fs.
func ConfigFlags(fs *pflag.FlagSet) {
	fs.String("record-id", "", "parent record id")
	fs.String("child-object", "", "child object API name")
	fs.String("relationship-field", "", "lookup field on the child object")
	fs.String("grandchild-object", "", "grandchild object API name")
	fs.String("grandchild-relationship-field", "", "lookup field on the grandchild object")
	fs.String("rows", "", "grid rows (1-5)")
	fs.String("columns", "", "grid columns (1-5)")
	fs.String("variant", "", "size preset: small, medium or large")
	fs.String("locale", "", "number formatting locale")
	fs.Int("decimal-places", DefaultDecimalPlaces, "default fraction digits")
}
