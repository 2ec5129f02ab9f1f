package rollup

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func englishContext(object string) InstanceContext {
	return InstanceContext{
		ObjectAPIName: object,
		Formatter:     NewLocaleFormatter("en-US"),
	}
}

func TestNewTileStartsIdle(t *testing.T) {
	tile := NewTile(TileConfig{Index: 2, AggregateField: "Name", InitialAggregation: "concatenate"}, englishContext("Contact"))

	assert.Equal(t, StatusIdle, tile.State.Status)
	assert.Equal(t, AggregationConcatenate, tile.State.AggregateType)
	assert.Equal(t, CategoryText, tile.State.Category)
	assert.Equal(t, "-", tile.View.DisplayValue)
	assert.False(t, tile.View.IsLoading)
	assert.False(t, tile.View.HasError)
	assert.Equal(t, "Combined values of 'Name'", tile.View.SummaryLabel)
	assert.Equal(t, gearMenuClassBase, tile.View.GearMenuClass)
}

func TestRecomputeFormatsCurrency(t *testing.T) {
	count := 3
	tile := Recompute(Tile{
		Config: TileConfig{Index: 1, AggregateField: "Amount"},
		State: TileState{
			AggregateType: AggregationSum,
			Status:        StatusSuccess,
			Value:         1234.5,
			IsCurrency:    true,
			RecordCount:   &count,
			FieldLabel:    "Amount",
		},
	}, englishContext("Opportunity"))

	assert.Equal(t, "$1,234.50", tile.View.DisplayValue)
	assert.True(t, tile.View.IsNumericAggregate)
	assert.True(t, tile.View.HasRecordCount)
	assert.Equal(t, "3 Opportunities", tile.View.SummaryRecordLabel)
	assert.Equal(t, "Sum of 'Amount' across 3 Opportunities", tile.View.SummaryLabel)
	assert.Equal(t, CategoryNumeric, tile.View.FieldCategory)
}

func TestRecomputeHonoursTileDecimalPlaces(t *testing.T) {
	tile := Recompute(Tile{
		Config: TileConfig{Index: 1, AggregateField: "Probability", DecimalPlaces: intPtr(1)},
		State: TileState{
			AggregateType: AggregationAverage,
			Status:        StatusSuccess,
			Value:         12.26,
			IsPercent:     true,
		},
	}, englishContext("Opportunity"))

	assert.Equal(t, "12.3%", tile.View.DisplayValue)
}

func TestRecomputeZeroInstanceContextUsesDefaultDigits(t *testing.T) {
	tile := NewTile(TileConfig{Index: 1, AggregateField: "Amount"}, InstanceContext{})
	tile.State.Status = StatusSuccess
	tile.State.Value = 1234.5
	tile.State.IsCurrency = true

	assert.Equal(t, "$1,234.50", Recompute(tile, InstanceContext{}).View.DisplayValue)
	assert.Equal(t, "$1,235", Recompute(tile, InstanceContext{DecimalPlaces: intPtr(0)}).View.DisplayValue)

	tile.Config.DecimalPlaces = intPtr(1)
	assert.Equal(t, "$1,234.5", Recompute(tile, InstanceContext{DecimalPlaces: intPtr(3)}).View.DisplayValue)
}

func TestRecomputeJoinsListValues(t *testing.T) {
	var resp AggregateResponse
	require.NoError(t, json.Unmarshal([]byte(`{"value": ["Renewal", "Upsell", null, 3]}`), &resp))

	tile := Recompute(Tile{
		Config: TileConfig{Index: 1, AggregateField: "Name"},
		State:  TileState{AggregateType: AggregationConcatenate, Status: StatusSuccess, Value: resp.Value},
	}, englishContext("Opportunity"))
	assert.Equal(t, "Renewal, Upsell, 3", tile.View.DisplayValue)

	tile.State.Value = []string{"a", "b"}
	assert.Equal(t, "a, b", Recompute(tile, englishContext("Opportunity")).View.DisplayValue)
}

func TestMenuToggleRoundTripRestoresView(t *testing.T) {
	count := 2
	ictx := englishContext("Opportunity")
	pristine := NewTile(TileConfig{Index: 2, AggregateField: "Amount"}, ictx)
	pristine.State = pristine.State.adopt(&AggregateResponse{RecordCount: &count, IsCurrency: true, FieldLabel: "Amount"})
	pristine.State.Status = StatusSuccess
	pristine.State.Value = 10.5
	pristine = Recompute(pristine, ictx)

	toggled := pristine
	toggled.State.IsAggregationMenuOpen = true
	toggled = Recompute(toggled, ictx)
	require.NotEqual(t, pristine.View, toggled.View)
	toggled.State.IsAggregationMenuOpen = false
	toggled = Recompute(toggled, ictx)

	assert.Equal(t, pristine.View, toggled.View)
	assert.Equal(t, pristine.State, toggled.State)
}

func TestRecomputeLeavesDatesUnformatted(t *testing.T) {
	tile := Recompute(Tile{
		Config: TileConfig{Index: 1, AggregateField: "CloseDate"},
		State: TileState{
			AggregateType: AggregationMax,
			Status:        StatusSuccess,
			Value:         "2024-06-30",
			IsDate:        true,
		},
	}, englishContext("Opportunity"))

	assert.Equal(t, "2024-06-30", tile.View.DisplayValue)
	assert.False(t, tile.View.IsNumericAggregate)
	assert.Equal(t, CategoryDate, tile.View.FieldCategory)

	var labels []string
	for _, option := range tile.View.AggregationMenuOptions {
		labels = append(labels, option.Label)
		if option.Value == AggregationMax {
			assert.True(t, option.IsSelected)
		} else {
			assert.False(t, option.IsSelected)
		}
	}
	assert.Equal(t, []string{"Count", "Count Distinct", "Max", "Min"}, labels)
}

func TestRecomputeUnfilteredMenuHidesFirstAndLast(t *testing.T) {
	tile := NewTile(TileConfig{Index: 1, AggregateField: "Name", InitialAggregation: "FIRST"}, englishContext(""))

	assert.Equal(t, AggregationFirst, tile.State.AggregateType)
	assert.Len(t, tile.View.AggregationMenuOptions, 8)
	for _, option := range tile.View.AggregationMenuOptions {
		assert.NotEqual(t, AggregationFirst, option.Value)
		assert.NotEqual(t, AggregationLast, option.Value)
		assert.False(t, option.IsSelected)
	}
	assert.Equal(t, "First value", tile.View.AggregationPhrase)
}

func TestRecomputeIsPure(t *testing.T) {
	count := 1
	input := Tile{
		Config: TileConfig{Index: 1, AggregateField: "Amount", InitialAggregation: "avg"},
		State: TileState{
			Status:                StatusSuccess,
			Value:                 42.0,
			RecordCount:           &count,
			IsAggregationMenuOpen: true,
		},
	}
	ictx := englishContext("Contact")
	first := Recompute(input, ictx)
	second := Recompute(first, ictx)

	assert.Equal(t, first, second)
	assert.Equal(t, AggregationAverage, first.State.AggregateType)
	assert.Equal(t, "1 Contact", first.View.SummaryRecordLabel)
	assert.Equal(t, gearMenuClassBase+" "+gearMenuClassOpen, first.View.GearMenuClass)
	assert.Empty(t, string(input.State.AggregateType), "input must not be mutated")
}

func TestRecomputeUsesTranslator(t *testing.T) {
	ictx := englishContext("Opportunity")
	ictx.Locale = "es"
	ictx.Translator = TranslationFunc(func(_ context.Context, key, locale string, _ map[string]any) (string, error) {
		if key == "rollup.aggregation.sum" && locale == "es" {
			return "Suma", nil
		}
		return "", nil
	})
	tile := NewTile(TileConfig{Index: 1, AggregateField: "Amount"}, ictx)
	assert.Equal(t, "Suma of 'Amount'", tile.View.SummaryLabel)
}

func TestDisplayValueHandlesJSONNumbers(t *testing.T) {
	var resp AggregateResponse
	decoder := json.NewDecoder(strings.NewReader(`{"value": 7, "isCurrency": false}`))
	decoder.UseNumber()
	require.NoError(t, decoder.Decode(&resp))

	tile := Recompute(Tile{
		Config: TileConfig{Index: 1, AggregateField: "Id", DecimalPlaces: intPtr(0)},
		State:  TileState{AggregateType: AggregationCount, Status: StatusSuccess, Value: resp.Value},
	}, englishContext("Case"))
	assert.Equal(t, "7", tile.View.DisplayValue)
}

func TestTileStateTransitions(t *testing.T) {
	count := 4
	state := TileState{
		AggregateType:         AggregationSum,
		Category:              CategoryNumeric,
		Status:                StatusSuccess,
		Value:                 10.0,
		RecordCount:           &count,
		IsCurrency:            true,
		IsAggregationMenuOpen: true,
	}
	loading := state.loading()
	assert.Equal(t, StatusLoading, loading.Status)
	assert.Nil(t, loading.Value)
	assert.Nil(t, loading.RecordCount)
	assert.False(t, loading.IsCurrency)
	assert.True(t, loading.IsAggregationMenuOpen)
	assert.Equal(t, AggregationSum, loading.AggregateType)

	failed := loading.failed(ErrorTransport, "boom")
	assert.Equal(t, StatusError, failed.Status)
	assert.Equal(t, ErrorTransport, failed.ErrorKind)
	assert.Equal(t, "boom", failed.Error)
}

func TestLoadStatusJSON(t *testing.T) {
	data, err := json.Marshal(StatusLoading)
	require.NoError(t, err)
	assert.JSONEq(t, `"loading"`, string(data))

	var status LoadStatus
	require.NoError(t, json.Unmarshal([]byte(`"error"`), &status))
	assert.Equal(t, StatusError, status)

	var kind ErrorKind
	require.NoError(t, json.Unmarshal([]byte(`"timeout"`), &kind))
	assert.Equal(t, ErrorTimeout, kind)
}
