package rollup

import (
	"fmt"
	"strings"
)

// Property names surfaced in configuration errors.
const (
	PropertyChildObject                 = "Child Object"
	PropertyRelationshipField           = "Relationship Field (lookup on child)"
	PropertyGrandchildObject            = "Grandchild Object"
	PropertyGrandchildRelationshipField = "Relationship Field (lookup on grandchild)"
	PropertyAggregateField              = "Aggregate Field"
)

// RelationshipConfig identifies the child (and optional grandchild) objects
// rolled up onto the parent record.
type RelationshipConfig struct {
	ChildObject                 string `json:"childObject"`
	RelationshipField           string `json:"relationshipField"`
	GrandchildObject            string `json:"grandchildObject"`
	GrandchildRelationshipField string `json:"grandchildRelationshipField"`
}

// GrandchildMode reports whether both grandchild identifiers are set.
func (r RelationshipConfig) GrandchildMode() bool {
	return strings.TrimSpace(r.GrandchildObject) != "" &&
		strings.TrimSpace(r.GrandchildRelationshipField) != ""
}

// SummaryObject is the object whose records are counted in summaries.
func (r RelationshipConfig) SummaryObject() string {
	if r.GrandchildMode() {
		return strings.TrimSpace(r.GrandchildObject)
	}
	return strings.TrimSpace(r.ChildObject)
}

// MissingProperties lists the required identifiers that are blank. The
// grandchild pair is only required once either half is set.
func (r RelationshipConfig) MissingProperties() []string {
	var missing []string
	if strings.TrimSpace(r.ChildObject) == "" {
		missing = append(missing, PropertyChildObject)
	}
	if strings.TrimSpace(r.RelationshipField) == "" {
		missing = append(missing, PropertyRelationshipField)
	}
	grandchildObject := strings.TrimSpace(r.GrandchildObject)
	grandchildField := strings.TrimSpace(r.GrandchildRelationshipField)
	if grandchildObject != "" || grandchildField != "" {
		if grandchildObject == "" {
			missing = append(missing, PropertyGrandchildObject)
		}
		if grandchildField == "" {
			missing = append(missing, PropertyGrandchildRelationshipField)
		}
	}
	return missing
}

// ConfigurationError returns the grid-wide configuration message, or "" when
// the relationship identifiers are complete.
func (r RelationshipConfig) ConfigurationError() string {
	missing := r.MissingProperties()
	if len(missing) == 0 {
		return ""
	}
	return fmt.Sprintf("Rollup configuration is incomplete. Set the following properties: %s.", strings.Join(missing, ", "))
}

// TileConfig is the immutable configuration of one tile slot.
type TileConfig struct {
	Index              int    `json:"index"`
	Label              string `json:"label,omitempty"`
	AggregateField     string `json:"aggregateField,omitempty"`
	InitialAggregation string `json:"initialAggregation,omitempty"`
	FilterCondition    string `json:"filterCondition,omitempty"`
	DecimalPlaces      *int   `json:"decimalPlaces,omitempty"`
}

// ConfigurationError returns the per-tile message when no aggregate field is set.
func (c TileConfig) ConfigurationError() string {
	if strings.TrimSpace(c.AggregateField) != "" {
		return ""
	}
	return fmt.Sprintf("Tile %d: configure an %s to display this rollup.", c.Index, PropertyAggregateField)
}

// GridConfig is everything a grid instance reads from its host configuration.
type GridConfig struct {
	RecordID string
	RelationshipConfig
	Rows              int
	Columns           int
	Variant           string
	Header            string
	HelpText          string
	ShowRefreshButton bool
	DecimalPlaces     *int
	Locale            string
	Tiles             []TileConfig
}

// SlotCount is the number of tiles materialized for this configuration.
func (c GridConfig) SlotCount() int {
	return SlotCount(c.Rows, c.Columns)
}

// Tile returns the configuration for slot index, or an empty slot config.
func (c GridConfig) Tile(index int) TileConfig {
	for _, tile := range c.Tiles {
		if tile.Index == index {
			return tile
		}
	}
	return TileConfig{Index: index}
}

// SlotConfigs returns the configurations for slots 1..SlotCount in order.
// Entries for higher indexes are never read.
func (c GridConfig) SlotConfigs() []TileConfig {
	count := c.SlotCount()
	out := make([]TileConfig, 0, count)
	for i := 1; i <= count; i++ {
		out = append(out, c.Tile(i))
	}
	return out
}
