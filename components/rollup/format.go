package rollup

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultDecimalPlaces is the fraction digit count used when neither the tile
// nor the instance configures one.
const DefaultDecimalPlaces = 2

// NumberFormatter renders numbers with locale-aware grouping and exactly
// fractionDigits digits after the decimal separator.
type NumberFormatter interface {
	FormatNumber(value float64, fractionDigits int) string
}

// NumberFormatterFunc adapts a function into a NumberFormatter.
type NumberFormatterFunc func(value float64, fractionDigits int) string

// FormatNumber implements NumberFormatter.
func (f NumberFormatterFunc) FormatNumber(value float64, fractionDigits int) string {
	return f(value, fractionDigits)
}

// LocaleFormatter formats numbers through golang.org/x/text for a language tag.
type LocaleFormatter struct {
	printer *message.Printer
}

// NewLocaleFormatter builds a formatter for locale (BCP 47, "en-US", "de").
// Unknown or empty locales fall back to English.
func NewLocaleFormatter(locale string) *LocaleFormatter {
	return &LocaleFormatter{printer: message.NewPrinter(localeTag(locale))}
}

// FormatNumber implements NumberFormatter.
func (f *LocaleFormatter) FormatNumber(value float64, fractionDigits int) string {
	if fractionDigits < 0 {
		fractionDigits = DefaultDecimalPlaces
	}
	return f.printer.Sprint(number.Decimal(roundHalfAway(value, fractionDigits),
		number.MinFractionDigits(fractionDigits),
		number.MaxFractionDigits(fractionDigits),
	))
}

// roundHalfAway rounds ties away from zero; x/text alone rounds half to even.
func roundHalfAway(value float64, fractionDigits int) float64 {
	scale := math.Pow10(fractionDigits)
	scaled := value * scale
	if math.IsInf(scaled, 0) || math.IsNaN(scaled) {
		return value
	}
	rounded := math.Round(scaled) / scale
	if rounded == 0 {
		return 0
	}
	return rounded
}

func localeTag(locale string) language.Tag {
	for _, candidate := range localeCandidates(locale) {
		if candidate == "" || candidate == "default" {
			continue
		}
		if tag, err := language.Parse(candidate); err == nil {
			return tag
		}
	}
	return language.English
}

var defaultFormatter NumberFormatter = NewLocaleFormatter("")
