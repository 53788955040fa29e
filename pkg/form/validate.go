package form

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ignatij/sheetflow/pkg/models"
	"github.com/pkg/errors"
)

const phMessage = "El valor de pH debe estar entre 6,5 y 9,5."

// RangeRule flags a numeric field value outside [Min, Max]. A nil bound is open.
type RangeRule struct {
	Workflow models.Workflow
	Field    string
	Min      *float64
	Max      *float64
	Message  string
}

func bound(v float64) *float64 { return &v }

// Violates reports whether v is out of range. Bounds are inclusive.
func (r RangeRule) Violates(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return true
	}
	if r.Max != nil && v > *r.Max {
		return true
	}
	return false
}

// RangeRules are the water-quality limits. Technician and personnel forms have none.
var RangeRules = []RangeRule{
	{Workflow: models.RoutineWorkflow, Field: "ph", Min: bound(6.5), Max: bound(9.5), Message: phMessage},
	{Workflow: models.RoutineWorkflow, Field: "turbidez", Max: bound(5), Message: "El valor de turbidez no debe superar 5."},
	{Workflow: models.RoutineWorkflow, Field: "cloro", Max: bound(1), Message: "El valor de cloro no debe superar 1."},
	{Workflow: models.OperationalWorkflow, Field: "ph", Min: bound(6.5), Max: bound(9.5), Message: phMessage},
	{Workflow: models.OperationalWorkflow, Field: "turbidez", Max: bound(2), Message: "El valor de turbidez no debe superar 2."},
}

func ruleFor(wf models.Workflow, fieldID string) (RangeRule, bool) {
	for _, r := range RangeRules {
		if r.Workflow == wf && r.Field == fieldID {
			return r, true
		}
	}
	return RangeRule{}, false
}

// leadingFloat matches the numeric prefix a lenient float parse would consume.
var leadingFloat = regexp.MustCompile(`^\s*[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)

// ParseNumber interprets a comma or dot decimal the way the form reads numbers:
// the longest leading numeric prefix wins ("7,5 NTU" -> 7.5), "Infinity" and
// overflowing exponents read as infinite, and text without a prefix is not a number.
func ParseNumber(value string) (float64, bool) {
	s := strings.ReplaceAll(value, ",", ".")
	m := leadingFloat.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
	if errors.Is(err, strconv.ErrRange) {
		// overflow is ±Inf, underflow is zero
		return f, true
	}
	if err != nil {
		return 0, false
	}
	return f, true
}

// Validate re-checks one edited field and returns the updated errors. The
// field's previous error is always dropped; only a parseable, out of range
// value sets a new one. The input map is not modified. Errors are advisory and never block a submission.
func Validate(wf models.Workflow, fieldID, value string, errs models.ErrorState) models.ErrorState {
	out := errs.Clone()
	delete(out, fieldID)
	if value == "" {
		return out
	}
	n, ok := ParseNumber(value)
	if !ok {
		return out
	}
	if rule, ok := ruleFor(wf, fieldID); ok && rule.Violates(n) {
		out[fieldID] = rule.Message
	}
	return out
}
