// Package form implements the per-field logic of the data-entry forms: input
// sanitizing, advisory range validation, default values and the payload
// formatting the spreadsheet expects.
package form

import (
	"strings"
	"unicode"

	"github.com/ignatij/sheetflow/pkg/models"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// commaDecimalFields are water-quality readings typed with a comma decimal separator.
var commaDecimalFields = map[string]bool{
	"ph":       true,
	"turbidez": true,
	"cloro":    true,
}

// StripDiacritics removes combining marks after canonical decomposition ("Año" -> "Ano").
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Sanitize normalizes raw input before it enters the form state.
func Sanitize(wf models.Workflow, fieldID, raw string) string {
	v := StripDiacritics(raw)
	if usesCommaDecimal(wf, fieldID) {
		v = strings.ReplaceAll(v, ".", ",")
	}
	return v
}

func usesCommaDecimal(wf models.Workflow, fieldID string) bool {
	if wf != models.RoutineWorkflow && wf != models.OperationalWorkflow {
		return false
	}
	return commaDecimalFields[fieldID]
}
