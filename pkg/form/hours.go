package form

import (
	"strconv"
	"strings"
	"time"
)

// HoursBoundFields are the personnel-hours inputs CalculateHours reads.
var HoursBoundFields = []string{"fecha_inicio", "hora_inicio", "fecha_fin", "hora_fin"}

// CalculateHours returns the hours between two date+time pairs as a comma
// decimal rounded to two places ("7,5"). ok is false when a part does not
// parse or the end is not after the start.
func CalculateHours(startDate, startTime, endDate, endTime string) (string, bool) {
	const layout = DateLayout + " " + TimeLayout
	start, err := time.Parse(layout, startDate+" "+startTime)
	if err != nil {
		return "", false
	}
	end, err := time.Parse(layout, endDate+" "+endTime)
	if err != nil {
		return "", false
	}
	if !end.After(start) {
		return "", false
	}
	s := strconv.FormatFloat(end.Sub(start).Hours(), 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	return strings.Replace(s, ".", ",", 1), true
}
