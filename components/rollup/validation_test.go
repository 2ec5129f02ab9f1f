package rollup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSchemaValidatorAcceptsValidConfig(t *testing.T) {
	validator := NewJSONSchemaValidator()
	err := validator.Validate(map[string]any{
		"record_id":    "001",
		"child_object": "Opportunity",
		"rows":         2,
		"columns":      "3",
		"tiles": []any{
			map[string]any{"index": 1, "field": "Amount", "aggregation": "SUM"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, validator.Validate(nil))
}

func TestJSONSchemaValidatorRejectsInvalidConfig(t *testing.T) {
	validator := NewJSONSchemaValidator()
	cases := map[string]map[string]any{
		"unknown property": {"colour": "red"},
		"tile index":       {"tiles": []any{map[string]any{"index": 30}}},
		"tile without idx": {"tiles": []any{map[string]any{"field": "Amount"}}},
		"decimal places":   {"decimal_places": -2},
		"refresh type":     {"show_refresh_button": "yes"},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, validator.Validate(payload))
		})
	}
}

func TestJSONSchemaValidatorValidatesDocuments(t *testing.T) {
	validator := NewJSONSchemaValidator()
	doc := DocumentFromConfig(opportunityConfig("001"))
	doc.DecimalPlaces = intPtr(2)
	assert.NoError(t, validator.ValidateDocument(doc))

	doc.Tiles = append(doc.Tiles, TileDocument{Index: 40})
	assert.Error(t, validator.ValidateDocument(doc))
}
