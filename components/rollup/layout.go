package rollup

import (
	"strconv"
	"strings"
)

const (
	MinDimension = 1
	MaxDimension = 5
	// MaxTiles caps the number of tile slots materialized by a grid.
	MaxTiles = 25
)

// Size presets understood by the host renderer.
const (
	VariantSmall  = "small"
	VariantMedium = "medium"
	VariantLarge  = "large"
)

var variantAliases = map[string]string{
	"compact": VariantSmall,
	"square":  VariantLarge,
}

// ParseDimension reads the leading integer of raw ("3", " 4 ", "2.9") and
// clamps it into [MinDimension, MaxDimension]. Anything unparsable yields the minimum.
func ParseDimension(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return MinDimension
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return ClampDimension(v, MinDimension, MaxDimension)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return ClampDimension(int(f), MinDimension, MaxDimension)
	}
	return MinDimension
}

// ClampDimension bounds v into [min, max].
func ClampDimension(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// SlotCount returns how many tiles a rows x columns grid materializes.
func SlotCount(rows, columns int) int {
	rows = ClampDimension(rows, MinDimension, MaxDimension)
	columns = ClampDimension(columns, MinDimension, MaxDimension)
	count := rows * columns
	if count > MaxTiles {
		return MaxTiles
	}
	return count
}

// NormalizeVariant resolves the size preset, mapping legacy aliases.
func NormalizeVariant(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := variantAliases[value]; ok {
		return alias
	}
	switch value {
	case VariantSmall, VariantMedium, VariantLarge:
		return value
	default:
		return VariantMedium
	}
}
