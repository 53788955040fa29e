package form

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ignatij/sheetflow/pkg/models"
)

var (
	isoDate       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dottedDecimal = regexp.MustCompile(`^-?\d+\.\d+$`)
)

// FormatValue rewrites one value the way the spreadsheet locale reads it:
// "2025-12-08" -> "8/12/2025" and "2.5" -> "2,5". Anything else is unchanged,
// so IP-like strings and free text keep their dots.
func FormatValue(v string) string {
	if isoDate.MatchString(v) {
		parts := strings.Split(v, "-")
		day, _ := strconv.Atoi(parts[2])
		month, _ := strconv.Atoi(parts[1])
		return strconv.Itoa(day) + "/" + strconv.Itoa(month) + "/" + parts[0]
	}
	if dottedDecimal.MatchString(v) {
		return strings.Replace(v, ".", ",", 1)
	}
	return v
}

// FormatForSheets applies FormatValue to every value, keeping the keys.
func FormatForSheets(state models.FormState) models.FormState {
	out := make(models.FormState, len(state))
	for k, v := range state {
		out[k] = FormatValue(v)
	}
	return out
}
