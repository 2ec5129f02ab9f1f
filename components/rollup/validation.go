package rollup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const configSchemaName = "rollup-config.json"

// ConfigSchema is the JSON schema of a ConfigDocument. Dimensions may be
// numbers or strings; aggregation names are checked later, case-insensitively.
func ConfigSchema() map[string]any {
	dimension := map[string]any{"type": []string{"integer", "number", "string"}}
	decimals := map[string]any{"type": "integer", "minimum": 0}
	return map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"record_id":                     map[string]any{"type": "string"},
			"child_object":                  map[string]any{"type": "string"},
			"relationship_field":            map[string]any{"type": "string"},
			"grandchild_object":             map[string]any{"type": "string"},
			"grandchild_relationship_field": map[string]any{"type": "string"},
			"rows":                          dimension,
			"columns":                       dimension,
			"variant":                       map[string]any{"type": "string"},
			"header":                        map[string]any{"type": "string"},
			"help_text":                     map[string]any{"type": "string"},
			"show_refresh_button":           map[string]any{"type": "boolean"},
			"decimal_places":                decimals,
			"locale":                        map[string]any{"type": "string"},
			"tiles": map[string]any{
				"type":     "array",
				"maxItems": MaxTiles,
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"index"},
					"properties": map[string]any{
						"index":          map[string]any{"type": "integer", "minimum": 1, "maximum": MaxTiles},
						"label":          map[string]any{"type": "string"},
						"field":          map[string]any{"type": "string"},
						"aggregation":    map[string]any{"type": "string"},
						"filter":         map[string]any{"type": "string"},
						"decimal_places": decimals,
					},
				},
			},
		},
	}
}

// ConfigValidator validates raw configuration payloads.
type ConfigValidator interface {
	Validate(config map[string]any) error
}

// ConfigValidatorFunc adapts a function into a ConfigValidator.
type ConfigValidatorFunc func(config map[string]any) error

// Validate implements ConfigValidator.
func (f ConfigValidatorFunc) Validate(config map[string]any) error {
	return f(config)
}

// JSONSchemaValidator validates configuration maps against ConfigSchema.
type JSONSchemaValidator struct {
	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{}
}

// Validate ensures the configuration satisfies the schema. Values are
// normalized through JSON first so YAML and koanf maps validate alike.
func (v *JSONSchemaValidator) Validate(config map[string]any) error {
	schema, err := v.schema()
	if err != nil {
		return err
	}
	var payload map[string]any
	if config == nil {
		payload = map[string]any{}
	} else {
		data, err := json.Marshal(config)
		if err != nil {
			return fmt.Errorf("rollup: marshal config: %w", err)
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("rollup: normalize config: %w", err)
		}
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("rollup: configuration failed validation: %w", err)
	}
	return nil
}

// ValidateDocument validates a decoded document.
func (v *JSONSchemaValidator) ValidateDocument(doc ConfigDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("rollup: marshal config: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("rollup: normalize config: %w", err)
	}
	return v.Validate(payload)
}

func (v *JSONSchemaValidator) schema() (*jsonschema.Schema, error) {
	v.once.Do(func() {
		data, err := json.Marshal(ConfigSchema())
		if err != nil {
			v.err = fmt.Errorf("rollup: marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(configSchemaName, bytes.NewReader(data)); err != nil {
			v.err = fmt.Errorf("rollup: load schema: %w", err)
			return
		}
		v.compiled, v.err = compiler.Compile(configSchemaName)
		if v.err != nil {
			v.err = fmt.Errorf("rollup: compile schema: %w", v.err)
		}
	})
	return v.compiled, v.err
}
