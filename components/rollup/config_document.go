package rollup

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigDocument is the serialized form of a grid configuration as found in
// YAML/JSON files, environment variables and CLI flags. Dimensions are kept as
// text because hosts hand them over as strings.
type ConfigDocument struct {
	RecordID                    string         `json:"record_id" yaml:"record_id" koanf:"record_id"`
	ChildObject                 string         `json:"child_object" yaml:"child_object" koanf:"child_object"`
	RelationshipField           string         `json:"relationship_field" yaml:"relationship_field" koanf:"relationship_field"`
	GrandchildObject            string         `json:"grandchild_object,omitempty" yaml:"grandchild_object,omitempty" koanf:"grandchild_object"`
	GrandchildRelationshipField string         `json:"grandchild_relationship_field,omitempty" yaml:"grandchild_relationship_field,omitempty" koanf:"grandchild_relationship_field"`
	Rows                        string         `json:"rows" yaml:"rows" koanf:"rows"`
	Columns                     string         `json:"columns" yaml:"columns" koanf:"columns"`
	Variant                     string         `json:"variant,omitempty" yaml:"variant,omitempty" koanf:"variant"`
	Header                      string         `json:"header,omitempty" yaml:"header,omitempty" koanf:"header"`
	HelpText                    string         `json:"help_text,omitempty" yaml:"help_text,omitempty" koanf:"help_text"`
	ShowRefreshButton           bool           `json:"show_refresh_button" yaml:"show_refresh_button" koanf:"show_refresh_button"`
	DecimalPlaces               *int           `json:"decimal_places,omitempty" yaml:"decimal_places,omitempty" koanf:"decimal_places"`
	Locale                      string         `json:"locale,omitempty" yaml:"locale,omitempty" koanf:"locale"`
	Tiles                       []TileDocument `json:"tiles,omitempty" yaml:"tiles,omitempty" koanf:"tiles"`
	Source                      string         `json:"-" yaml:"-" koanf:"-"`
}

// TileDocument configures one tile slot inside a ConfigDocument.
type TileDocument struct {
	Index         int    `json:"index" yaml:"index" koanf:"index"`
	Label         string `json:"label,omitempty" yaml:"label,omitempty" koanf:"label"`
	Field         string `json:"field,omitempty" yaml:"field,omitempty" koanf:"field"`
	Aggregation   string `json:"aggregation,omitempty" yaml:"aggregation,omitempty" koanf:"aggregation"`
	Filter        string `json:"filter,omitempty" yaml:"filter,omitempty" koanf:"filter"`
	DecimalPlaces *int   `json:"decimal_places,omitempty" yaml:"decimal_places,omitempty" koanf:"decimal_places"`
}

// DefaultConfigDocument returns a document holding only the defaults shared by
// LoadConfig and DecodeConfig.
func DefaultConfigDocument() ConfigDocument {
	places := DefaultDecimalPlaces
	return ConfigDocument{
		Rows:              "1",
		Columns:           "3",
		Variant:           VariantMedium,
		ShowRefreshButton: true,
		DecimalPlaces:     &places,
	}
}

// ConfigDefaults are the values applied before any file, env or flag layer.
func ConfigDefaults() map[string]any {
	doc := DefaultConfigDocument()
	return map[string]any{
		"rows":                doc.Rows,
		"columns":             doc.Columns,
		"variant":             doc.Variant,
		"show_refresh_button": doc.ShowRefreshButton,
		"decimal_places":      *doc.DecimalPlaces,
	}
}

// ReadConfig loads a configuration file from disk.
func ReadConfig(path string) (*ConfigDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("rollup: open config %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("rollup: decode config %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeConfig reads a configuration document from any reader on top of
// DefaultConfigDocument. Unknown keys are rejected.
func DecodeConfig(r io.Reader) (*ConfigDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	doc := DefaultConfigDocument()
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("rollup: config is empty")
		}
		return nil, fmt.Errorf("rollup: parse config: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// EncodeConfig writes doc as YAML.
func EncodeConfig(w io.Writer, doc ConfigDocument) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("rollup: encode config: %w", err)
	}
	return encoder.Close()
}

// Validate checks structural constraints that would make the document
// ambiguous. Missing relationship identifiers are not structural: they surface
// as configuration errors on the tiles.
func (doc *ConfigDocument) Validate() error {
	if doc.DecimalPlaces != nil && *doc.DecimalPlaces < 0 {
		return fmt.Errorf("rollup: decimal_places must not be negative")
	}
	seen := make(map[int]struct{}, len(doc.Tiles))
	for idx, tile := range doc.Tiles {
		if tile.Index < 1 || tile.Index > MaxTiles {
			return fmt.Errorf("rollup: tile at position %d has index %d outside 1..%d", idx, tile.Index, MaxTiles)
		}
		if _, exists := seen[tile.Index]; exists {
			return fmt.Errorf("rollup: tile index %d configured twice", tile.Index)
		}
		if tile.DecimalPlaces != nil && *tile.DecimalPlaces < 0 {
			return fmt.Errorf("rollup: tile %d decimal_places must not be negative", tile.Index)
		}
		seen[tile.Index] = struct{}{}
	}
	return nil
}

// Issues lists everything that would keep tiles of this configuration from
// loading, plus aggregation names that will silently fall back to SUM.
func (doc ConfigDocument) Issues() []string {
	cfg := doc.GridConfig()
	var issues []string
	if msg := cfg.ConfigurationError(); msg != "" {
		issues = append(issues, msg)
	}
	for _, tile := range cfg.SlotConfigs() {
		if msg := tile.ConfigurationError(); msg != "" {
			issues = append(issues, msg)
		}
		if raw := strings.TrimSpace(tile.InitialAggregation); raw != "" && !NormalizeAggregation(raw).IsCanonical() {
			issues = append(issues, fmt.Sprintf("Tile %d: unknown aggregation %q, SUM will be used.", tile.Index, raw))
		}
	}
	slots := cfg.SlotCount()
	for _, tile := range doc.Tiles {
		if tile.Index > slots {
			issues = append(issues, fmt.Sprintf("Tile %d: outside the %d materialized slots, ignored.", tile.Index, slots))
		}
	}
	return issues
}

// GridConfig converts the document into the runtime configuration.
func (doc ConfigDocument) GridConfig() GridConfig {
	cfg := GridConfig{
		RecordID: strings.TrimSpace(doc.RecordID),
		RelationshipConfig: RelationshipConfig{
			ChildObject:                 doc.ChildObject,
			RelationshipField:           doc.RelationshipField,
			GrandchildObject:            doc.GrandchildObject,
			GrandchildRelationshipField: doc.GrandchildRelationshipField,
		},
		Rows:              ParseDimension(doc.Rows),
		Columns:           ParseDimension(doc.Columns),
		Variant:           NormalizeVariant(doc.Variant),
		Header:            doc.Header,
		HelpText:          doc.HelpText,
		ShowRefreshButton: doc.ShowRefreshButton,
		DecimalPlaces:     doc.DecimalPlaces,
		Locale:            doc.Locale,
	}
	for _, tile := range doc.Tiles {
		cfg.Tiles = append(cfg.Tiles, TileConfig{
			Index:              tile.Index,
			Label:              tile.Label,
			AggregateField:     tile.Field,
			InitialAggregation: tile.Aggregation,
			FilterCondition:    tile.Filter,
			DecimalPlaces:      tile.DecimalPlaces,
		})
	}
	return cfg
}

// DocumentFromConfig is the inverse of ConfigDocument.GridConfig.
func DocumentFromConfig(cfg GridConfig) ConfigDocument {
	doc := ConfigDocument{
		RecordID:                    cfg.RecordID,
		ChildObject:                 cfg.ChildObject,
		RelationshipField:           cfg.RelationshipField,
		GrandchildObject:            cfg.GrandchildObject,
		GrandchildRelationshipField: cfg.GrandchildRelationshipField,
		Rows:                        strconv.Itoa(cfg.Rows),
		Columns:                     strconv.Itoa(cfg.Columns),
		Variant:                     cfg.Variant,
		Header:                      cfg.Header,
		HelpText:                    cfg.HelpText,
		ShowRefreshButton:           cfg.ShowRefreshButton,
		DecimalPlaces:               cfg.DecimalPlaces,
		Locale:                      cfg.Locale,
	}
	for _, tile := range cfg.Tiles {
		doc.Tiles = append(doc.Tiles, TileDocument{
			Index:         tile.Index,
			Label:         tile.Label,
			Field:         tile.AggregateField,
			Aggregation:   tile.InitialAggregation,
			Filter:        tile.FilterCondition,
			DecimalPlaces: tile.DecimalPlaces,
		})
	}
	return doc
}
