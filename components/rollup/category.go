package rollup

import (
	"encoding/json"
	"fmt"
)

// FieldCategory is a coarse classification of the aggregated field used to
// restrict which aggregation kinds a tile offers.
type FieldCategory int

const (
	CategoryUnknown FieldCategory = iota
	CategoryNumeric
	CategoryText
	CategoryDate
)

// String implements fmt.Stringer.
func (c FieldCategory) String() string {
	switch c {
	case CategoryNumeric:
		return "numeric"
	case CategoryText:
		return "text"
	case CategoryDate:
		return "date"
	case CategoryUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("FieldCategory(%d)", int(c))
	}
}

// MarshalJSON encodes the category by name.
func (c FieldCategory) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a category name; unknown names map to CategoryUnknown.
func (c *FieldCategory) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*c = ParseFieldCategory(name)
	return nil
}

// ParseFieldCategory maps a category name back to its value.
func ParseFieldCategory(name string) FieldCategory {
	switch name {
	case "numeric":
		return CategoryNumeric
	case "text":
		return CategoryText
	case "date":
		return CategoryDate
	default:
		return CategoryUnknown
	}
}

// AllowedAggregations returns the kinds selectable for the category. A nil
// result means the menu is not filtered.
func (c FieldCategory) AllowedAggregations() []AggregationKind {
	switch c {
	case CategoryNumeric:
		return []AggregationKind{
			AggregationSum, AggregationAverage, AggregationMax, AggregationMin,
			AggregationCount, AggregationCountDistinct, AggregationFirst, AggregationLast,
		}
	case CategoryText:
		return []AggregationKind{
			AggregationConcatenate, AggregationConcatenateDistinct,
			AggregationCount, AggregationCountDistinct, AggregationFirst, AggregationLast,
		}
	case CategoryDate:
		return []AggregationKind{
			AggregationMax, AggregationMin, AggregationCount, AggregationCountDistinct,
		}
	case CategoryUnknown:
		return nil
	}
	return nil
}

// InferCategory guesses a category from the aggregation kind before any server
// hints exist.
func InferCategory(kind AggregationKind) FieldCategory {
	switch kind {
	case AggregationSum, AggregationAverage, AggregationMax, AggregationMin:
		return CategoryNumeric
	case AggregationConcatenate, AggregationConcatenateDistinct:
		return CategoryText
	default:
		return CategoryUnknown
	}
}

// ResolveCategory applies server hints on top of the stored category. Date wins
// over currency/percent, which win over the stored guess.
func ResolveCategory(stored FieldCategory, isDate, isCurrency, isPercent bool) FieldCategory {
	switch {
	case isDate:
		return CategoryDate
	case isCurrency || isPercent:
		return CategoryNumeric
	default:
		return stored
	}
}
