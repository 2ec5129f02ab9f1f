package rollup

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowedAggregationsPerCategory(t *testing.T) {
	assert.Equal(t, []AggregationKind{
		AggregationSum, AggregationAverage, AggregationMax, AggregationMin,
		AggregationCount, AggregationCountDistinct, AggregationFirst, AggregationLast,
	}, CategoryNumeric.AllowedAggregations())
	assert.Equal(t, []AggregationKind{
		AggregationConcatenate, AggregationConcatenateDistinct,
		AggregationCount, AggregationCountDistinct, AggregationFirst, AggregationLast,
	}, CategoryText.AllowedAggregations())
	assert.Equal(t, []AggregationKind{
		AggregationMax, AggregationMin, AggregationCount, AggregationCountDistinct,
	}, CategoryDate.AllowedAggregations())
	assert.Nil(t, CategoryUnknown.AllowedAggregations())
}

func TestInferCategory(t *testing.T) {
	assert.Equal(t, CategoryNumeric, InferCategory(AggregationAverage))
	assert.Equal(t, CategoryNumeric, InferCategory(AggregationMin))
	assert.Equal(t, CategoryText, InferCategory(AggregationConcatenateDistinct))
	assert.Equal(t, CategoryUnknown, InferCategory(AggregationCount))
	assert.Equal(t, CategoryUnknown, InferCategory(AggregationFirst))
}

func TestResolveCategoryPrecedence(t *testing.T) {
	assert.Equal(t, CategoryDate, ResolveCategory(CategoryText, true, true, false))
	assert.Equal(t, CategoryNumeric, ResolveCategory(CategoryText, false, true, false))
	assert.Equal(t, CategoryNumeric, ResolveCategory(CategoryUnknown, false, false, true))
	assert.Equal(t, CategoryText, ResolveCategory(CategoryText, false, false, false))
}

func TestFieldCategoryJSON(t *testing.T) {
	data, err := json.Marshal(CategoryDate)
	require.NoError(t, err)
	assert.JSONEq(t, `"date"`, string(data))

	var decoded FieldCategory
	require.NoError(t, json.Unmarshal([]byte(`"text"`), &decoded))
	assert.Equal(t, CategoryText, decoded)
	require.NoError(t, json.Unmarshal([]byte(`"currency"`), &decoded))
	assert.Equal(t, CategoryUnknown, decoded)
}
