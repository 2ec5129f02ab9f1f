package rollup

import "testing"

func TestNormalizeAggregation(t *testing.T) {
	cases := map[string]AggregationKind{
		"":                 "",
		"   ":              "",
		"sum":              AggregationSum,
		" avg ":            AggregationAverage,
		"Count_Distinct":   AggregationCountDistinct,
		"median":           AggregationKind("MEDIAN"),
		"concatenate":      AggregationConcatenate,
		"first":            AggregationFirst,
		"LAST":             AggregationLast,
		"average":          AggregationAverage,
		"count":            AggregationCount,
		"max ":             AggregationMax,
		"min":              AggregationMin,
		"sum\t":            AggregationSum,
		"concatenate_dIst": AggregationKind("CONCATENATE_DIST"),
	}
	for raw, want := range cases {
		if got := NormalizeAggregation(raw); got != want {
			t.Fatalf("NormalizeAggregation(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestValidateAggregationFallsBackToSum(t *testing.T) {
	for _, raw := range []string{"", "median", "AVG_SUM", "  "} {
		if got := ValidateAggregation(raw); got != AggregationSum {
			t.Fatalf("ValidateAggregation(%q) = %q, want SUM", raw, got)
		}
	}
	if got := ValidateAggregation("avg"); got != AggregationAverage {
		t.Fatalf("expected AVG alias to resolve to AVERAGE, got %q", got)
	}
}

func TestValidateAggregationIsIdempotent(t *testing.T) {
	for _, kind := range CanonicalAggregations() {
		once := ValidateAggregation(string(kind))
		if once != kind {
			t.Fatalf("canonical kind %q changed to %q", kind, once)
		}
		if twice := ValidateAggregation(string(once)); twice != once {
			t.Fatalf("ValidateAggregation not idempotent for %q", kind)
		}
	}
}

func TestCanonicalAggregationsReturnsCopy(t *testing.T) {
	kinds := CanonicalAggregations()
	if len(kinds) != 10 {
		t.Fatalf("expected 10 canonical kinds, got %d", len(kinds))
	}
	kinds[0] = "BROKEN"
	if CanonicalAggregations()[0] != AggregationSum {
		t.Fatalf("mutating the result leaked into the package state")
	}
}

func TestProducesNumber(t *testing.T) {
	cases := []struct {
		kind   AggregationKind
		isDate bool
		want   bool
	}{
		{AggregationSum, false, true},
		{AggregationAverage, false, true},
		{AggregationCount, true, true},
		{AggregationCountDistinct, false, true},
		{AggregationMax, false, true},
		{AggregationMax, true, false},
		{AggregationMin, true, false},
		{AggregationConcatenate, false, false},
		{AggregationFirst, false, false},
		{AggregationLast, false, false},
	}
	for _, tc := range cases {
		if got := tc.kind.ProducesNumber(tc.isDate); got != tc.want {
			t.Fatalf("%s.ProducesNumber(%v) = %v, want %v", tc.kind, tc.isDate, got, tc.want)
		}
	}
}

func TestAggregationPhrase(t *testing.T) {
	if got := AggregationCountDistinct.Phrase(); got != "Distinct count" {
		t.Fatalf("unexpected phrase %q", got)
	}
	if got := AggregationKind("MEDIAN").Phrase(); got != "Sum" {
		t.Fatalf("unknown kinds should use the SUM phrase, got %q", got)
	}
	if got := AggregationKind("MEDIAN").translationKey(); got != "rollup.aggregation.sum" {
		t.Fatalf("unexpected translation key %q", got)
	}
}
