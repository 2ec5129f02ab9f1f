package rollup

import (
	"strings"

	"github.com/ettle/strcase"
	"github.com/gertd/go-pluralize"
)

const (
	defaultObjectLabel = "record"
	defaultFieldLabel  = "this field"
)

var inflector = pluralize.NewClient()

// ObjectLabel humanizes an object API name for summaries: the custom object
// suffix and one namespace prefix are removed, words are Title Cased and the
// last word is singularized. "acme__Invoice_Line_Items__c" becomes "Invoice Line Item".
func ObjectLabel(apiName string) string {
	name := strings.TrimSpace(apiName)
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, "__c") || strings.HasSuffix(lower, "__x") {
		name = name[:len(name)-3]
	}
	if idx := strings.Index(name, "__"); idx > 0 {
		name = name[idx+2:]
	}
	name = strings.Trim(name, "_ ")
	if name == "" {
		return defaultObjectLabel
	}
	label := strings.TrimSpace(strcase.ToCase(name, strcase.TitleCase, ' '))
	if label == "" {
		return defaultObjectLabel
	}
	return mapLastWord(label, inflector.Singular)
}

// RecordLabel renders "<count> <label>" pluralizing the label unless count is one.
func RecordLabel(formattedCount string, count int, label string) string {
	if label == "" {
		label = defaultObjectLabel
	}
	if count != 1 {
		label = mapLastWord(label, inflector.Plural)
	}
	return formattedCount + " " + label
}

// FieldLabelForSummary picks the best available name for the aggregated field.
func FieldLabelForSummary(serverLabel, configuredLabel, fieldAPIName string) string {
	for _, candidate := range []string{serverLabel, configuredLabel, fieldAPIName} {
		if v := strings.TrimSpace(candidate); v != "" {
			return v
		}
	}
	return defaultFieldLabel
}

func mapLastWord(phrase string, fn func(string) string) string {
	idx := strings.LastIndex(phrase, " ")
	if idx < 0 {
		return fn(phrase)
	}
	return phrase[:idx+1] + fn(phrase[idx+1:])
}
