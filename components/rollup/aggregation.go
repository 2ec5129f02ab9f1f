package rollup

import "strings"

// AggregationKind is one of the canonical aggregation operations executed by the
// Aggregation Service across child records.
type AggregationKind string

const (
	AggregationSum                 AggregationKind = "SUM"
	AggregationAverage             AggregationKind = "AVERAGE"
	AggregationMax                 AggregationKind = "MAX"
	AggregationMin                 AggregationKind = "MIN"
	AggregationCount               AggregationKind = "COUNT"
	AggregationCountDistinct       AggregationKind = "COUNT_DISTINCT"
	AggregationConcatenate         AggregationKind = "CONCATENATE"
	AggregationConcatenateDistinct AggregationKind = "CONCATENATE_DISTINCT"
	AggregationFirst               AggregationKind = "FIRST"
	AggregationLast                AggregationKind = "LAST"
)

// DefaultAggregation is used whenever a configured kind is missing or unknown.
const DefaultAggregation = AggregationSum

var canonicalAggregations = []AggregationKind{
	AggregationSum,
	AggregationAverage,
	AggregationMax,
	AggregationMin,
	AggregationCount,
	AggregationCountDistinct,
	AggregationConcatenate,
	AggregationConcatenateDistinct,
	AggregationFirst,
	AggregationLast,
}

var aggregationAliases = map[string]AggregationKind{
	"AVG": AggregationAverage,
}

var aggregationPhrases = map[AggregationKind]string{
	AggregationSum:                 "Sum",
	AggregationAverage:             "Average",
	AggregationMax:                 "Maximum",
	AggregationMin:                 "Minimum",
	AggregationCount:               "Count",
	AggregationCountDistinct:       "Distinct count",
	AggregationConcatenate:         "Combined values",
	AggregationConcatenateDistinct: "Distinct combined values",
	AggregationFirst:               "First value",
	AggregationLast:                "Last value",
}

// MenuOption is a selectable entry of a tile's aggregation dropdown.
type MenuOption struct {
	Label      string          `json:"label"`
	Value      AggregationKind `json:"value"`
	IsSelected bool            `json:"isSelected"`
}

// baseMenuOptions lists the user-facing kinds in display order. FIRST and LAST
// are valid for requests but never offered in the menu.
var baseMenuOptions = []MenuOption{
	{Label: "Average", Value: AggregationAverage},
	{Label: "Concatenate", Value: AggregationConcatenate},
	{Label: "Concatenate Distinct", Value: AggregationConcatenateDistinct},
	{Label: "Count", Value: AggregationCount},
	{Label: "Count Distinct", Value: AggregationCountDistinct},
	{Label: "Max", Value: AggregationMax},
	{Label: "Min", Value: AggregationMin},
	{Label: "Sum", Value: AggregationSum},
}

// CanonicalAggregations returns the ten supported kinds.
func CanonicalAggregations() []AggregationKind {
	return append([]AggregationKind(nil), canonicalAggregations...)
}

// NormalizeAggregation trims and upper-cases raw input and resolves legacy
// aliases. It returns an empty kind for blank input and does not validate.
func NormalizeAggregation(raw string) AggregationKind {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" {
		return ""
	}
	if alias, ok := aggregationAliases[value]; ok {
		return alias
	}
	return AggregationKind(value)
}

// ValidateAggregation normalizes raw and falls back to SUM for anything that is
// not a canonical kind, so persisted garbage never reaches the service.
func ValidateAggregation(raw string) AggregationKind {
	kind := NormalizeAggregation(raw)
	if kind.IsCanonical() {
		return kind
	}
	return DefaultAggregation
}

// IsCanonical reports whether k is one of the ten supported kinds.
func (k AggregationKind) IsCanonical() bool {
	for _, candidate := range canonicalAggregations {
		if candidate == k {
			return true
		}
	}
	return false
}

// ProducesNumber reports whether the kind yields a number eligible for locale
// formatting. MIN/MAX over a date field print as-is.
func (k AggregationKind) ProducesNumber(isDate bool) bool {
	switch k {
	case AggregationSum, AggregationAverage, AggregationCount, AggregationCountDistinct:
		return true
	case AggregationMin, AggregationMax:
		return !isDate
	default:
		return false
	}
}

// Phrase returns the English phrase used in tile summaries.
func (k AggregationKind) Phrase() string {
	if phrase, ok := aggregationPhrases[k]; ok {
		return phrase
	}
	return aggregationPhrases[DefaultAggregation]
}

func (k AggregationKind) translationKey() string {
	if !k.IsCanonical() {
		k = DefaultAggregation
	}
	return "rollup.aggregation." + strings.ToLower(string(k))
}
