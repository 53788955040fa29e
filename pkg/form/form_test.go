package form_test

import (
	"math"
	"testing"
	"time"
	"unicode"

	"github.com/google/go-cmp/cmp"
	"github.com/ignatij/sheetflow/pkg/form"
	"github.com/ignatij/sheetflow/pkg/models"
	"github.com/ignatij/sheetflow/pkg/schema"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/unicode/norm"
)

func TestSanitize(t *testing.T) {
	t.Run("StripsDiacritics", func(t *testing.T) {
		cases := map[string]string{
			"Año":               "Ano",
			"Compañía":          "Compania",
			"López Suárez":      "Lopez Suarez",
			"Sindrán":           "Sindran",
			"ÁÉÍÓÚ üñ":          "AEIOU un",
			"plain text":        "plain text",
			"  keeps  spacing ": "  keeps  spacing ",
		}
		for in, want := range cases {
			got := form.Sanitize(models.TechnicianWorkflow, "observaciones", in)
			assert.Equal(t, want, got, "input %q", in)
			for _, r := range norm.NFD.String(got) {
				assert.False(t, unicode.Is(unicode.Mn, r), "combining mark left in %q", got)
			}
		}
	})

	t.Run("DecomposedInput", func(t *testing.T) {
		assert.Equal(t, "Ano", form.Sanitize(models.RoutineWorkflow, "operario", "An\u0303o"))
	})

	t.Run("CommaDecimalFields", func(t *testing.T) {
		for _, wf := range []models.Workflow{models.RoutineWorkflow, models.OperationalWorkflow} {
			for _, field := range []string{"ph", "turbidez", "cloro"} {
				assert.Equal(t, "7,2", form.Sanitize(wf, field, "7.2"))
				assert.Equal(t, "1,2,3", form.Sanitize(wf, field, "1.2.3"))
			}
		}
	})

	t.Run("OtherFieldsKeepDots", func(t *testing.T) {
		assert.Equal(t, "7.2", form.Sanitize(models.RoutineWorkflow, "color", "7.2"))
		assert.Equal(t, "12.5", form.Sanitize(models.TechnicianWorkflow, "total_bomba_1", "12.5"))
		assert.Equal(t, "7.2", form.Sanitize(models.PersonnelHoursWorkflow, "ph", "7.2"))
	})

	t.Run("NoCaseChange", func(t *testing.T) {
		assert.Equal(t, "MiXeD", form.Sanitize(models.RoutineWorkflow, "olor", "MiXeD"))
	})
}

func TestValidate(t *testing.T) {
	validate := func(wf models.Workflow, field, value string) models.ErrorState {
		return form.Validate(wf, field, value, models.ErrorState{})
	}

	t.Run("RoutinePH", func(t *testing.T) {
		assert.Equal(t, "El valor de pH debe estar entre 6,5 y 9,5.", validate(models.RoutineWorkflow, "ph", "9,6")["ph"])
		assert.Empty(t, validate(models.RoutineWorkflow, "ph", "9,5"))
		assert.Empty(t, validate(models.RoutineWorkflow, "ph", "6,5"))
		assert.Contains(t, validate(models.RoutineWorkflow, "ph", "6,4"), "ph")
	})

	t.Run("Turbidity", func(t *testing.T) {
		assert.Contains(t, validate(models.OperationalWorkflow, "turbidez", "2,1"), "turbidez")
		assert.Equal(t, "El valor de turbidez no debe superar 2.", validate(models.OperationalWorkflow, "turbidez", "2,1")["turbidez"])
		assert.Empty(t, validate(models.OperationalWorkflow, "turbidez", "2"))
		assert.Empty(t, validate(models.RoutineWorkflow, "turbidez", "5"))
		assert.Equal(t, "El valor de turbidez no debe superar 5.", validate(models.RoutineWorkflow, "turbidez", "5,1")["turbidez"])
	})

	t.Run("Chlorine", func(t *testing.T) {
		assert.Equal(t, "El valor de cloro no debe superar 1.", validate(models.RoutineWorkflow, "cloro", "1,01")["cloro"])
		assert.Empty(t, validate(models.RoutineWorkflow, "cloro", "1"))
		// operational chlorine has no limit
		assert.Empty(t, validate(models.OperationalWorkflow, "cloro", "3"))
	})

	t.Run("NoRulesOutsideWaterQuality", func(t *testing.T) {
		assert.Empty(t, validate(models.TechnicianWorkflow, "ph", "14"))
		assert.Empty(t, validate(models.PersonnelHoursWorkflow, "horas", "99"))
	})

	t.Run("EmptyClears", func(t *testing.T) {
		prev := models.ErrorState{"ph": "bad", "cloro": "bad"}
		got := form.Validate(models.RoutineWorkflow, "ph", "", prev)
		assert.Equal(t, models.ErrorState{"cloro": "bad"}, got)
		assert.Len(t, prev, 2, "input must not be modified")
	})

	t.Run("UnparseableHasNoError", func(t *testing.T) {
		got := form.Validate(models.RoutineWorkflow, "ph", "abc", models.ErrorState{"ph": "bad"})
		assert.Empty(t, got)
	})

	t.Run("InfiniteIsOutOfRange", func(t *testing.T) {
		assert.Contains(t, validate(models.RoutineWorkflow, "ph", "1e400"), "ph")
		assert.Contains(t, validate(models.OperationalWorkflow, "turbidez", "Infinity"), "turbidez")
		assert.Contains(t, validate(models.RoutineWorkflow, "ph", "-Infinity"), "ph")
	})

	t.Run("LenientPrefix", func(t *testing.T) {
		assert.Contains(t, validate(models.RoutineWorkflow, "ph", "10 unidades"), "ph")
		assert.Empty(t, validate(models.RoutineWorkflow, "ph", "7,2,1"))
	})
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"9,6", 9.6, true},
		{"2", 2, true},
		{"-10.05", -10.05, true},
		{",5", 0.5, true},
		{"1e2", 100, true},
		{"7abc", 7, true},
		{"abc", 0, false},
		{"", 0, false},
		{"-", 0, false},
	}
	for _, c := range cases {
		got, ok := form.ParseNumber(c.in)
		assert.Equal(t, c.ok, ok, "input %q", c.in)
		assert.InDelta(t, c.want, got, 1e-9, "input %q", c.in)
	}

	t.Run("Infinite", func(t *testing.T) {
		for in, sign := range map[string]int{"1e400": 1, "-1e400": -1, "Infinity": 1, "-Infinity": -1, "Infinity mg/l": 1} {
			got, ok := form.ParseNumber(in)
			assert.True(t, ok, "input %q", in)
			assert.True(t, math.IsInf(got, sign), "input %q gave %v", in, got)
		}
		got, ok := form.ParseNumber("1e-400")
		assert.True(t, ok)
		assert.Zero(t, got)
		_, ok = form.ParseNumber("infinity")
		assert.False(t, ok)
	})
}

func TestBuildInitialState(t *testing.T) {
	now := time.Date(2025, 12, 8, 9, 5, 30, 0, time.UTC)
	catalog := schema.MustCatalog(schema.CurrentRevision)
	build := func(wf models.Workflow) models.FormState {
		return form.BuildInitialState(wf, catalog.Resolve(wf).Fields, now)
	}

	t.Run("Technician", func(t *testing.T) {
		state := build(models.TechnicianWorkflow)
		assert.Equal(t, "2025-12-08", state["date"])
		assert.NotContains(t, state, "hora")
		assert.Equal(t, "Bombeo Moreda", state["bombeo"])
		assert.Equal(t, "", state["total_bomba_1"])
	})

	t.Run("Routine", func(t *testing.T) {
		state := build(models.RoutineWorkflow)
		assert.Equal(t, "2025-12-08", state["date"])
		// first sampling point is the empty placeholder
		assert.Equal(t, "", state["punto_de_muestreo"])
	})

	t.Run("Operational", func(t *testing.T) {
		state := build(models.OperationalWorkflow)
		assert.Equal(t, "2025-12-08", state["date"])
		assert.Equal(t, "09:05", state["hora"])
	})

	t.Run("PersonnelHours", func(t *testing.T) {
		want := models.FormState{
			"fecha_inicio":  "2025-12-08",
			"fecha_fin":     "2025-12-08",
			"hora_inicio":   "09:05",
			"hora_fin":      "09:05",
			"actuacion":     "",
			"horas":         "",
			"nombre":        "",
			"observaciones": "",
		}
		if diff := cmp.Diff(want, build(models.PersonnelHoursWorkflow)); diff != "" {
			t.Errorf("initial state mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("PersonnelVacation", func(t *testing.T) {
		state := build(models.PersonnelVacationWorkflow)
		assert.Equal(t, "2025-12-08", state["fecha_inicio"])
		assert.Equal(t, "2025-12-08", state["fecha_fin"])
		assert.Equal(t, "1", state["dias"])
	})

	t.Run("ExactlyTheSchemaKeys", func(t *testing.T) {
		for _, wf := range models.Workflows {
			s := catalog.Resolve(wf)
			state := build(wf)
			assert.Len(t, state, len(s.Fields), "workflow %s", wf)
			for _, id := range s.FieldIDs() {
				assert.Contains(t, state, id)
			}
		}
	})
}

func TestFormatValue(t *testing.T) {
	cases := map[string]string{
		"2025-12-08":   "8/12/2025",
		"2025-01-01":   "1/1/2025",
		"2.5":          "2,5",
		"-10.05":       "-10,05",
		"abc":          "abc",
		"192.168.1.1":  "192.168.1.1",
		"2,5":          "2,5",
		"12":           "12",
		"2025-1-1":     "2025-1-1",
		"09:30":        "09:30",
		" 2.5":         " 2.5",
		"2025-12-08 x": "2025-12-08 x",
	}
	for in, want := range cases {
		assert.Equal(t, want, form.FormatValue(in), "input %q", in)
	}
}

func TestFormatForSheets(t *testing.T) {
	in := models.FormState{"date": "2025-12-08", "total_bomba_1": "12.5", "bombeo": "Bombeo Moreda"}
	got := form.FormatForSheets(in)
	assert.Equal(t, models.FormState{"date": "8/12/2025", "total_bomba_1": "12,5", "bombeo": "Bombeo Moreda"}, got)
	assert.Equal(t, "2025-12-08", in["date"], "input must not be modified")
}

func TestCalculateHours(t *testing.T) {
	got, ok := form.CalculateHours("2025-12-08", "08:00", "2025-12-08", "15:30")
	assert.True(t, ok)
	assert.Equal(t, "7,5", got)

	got, ok = form.CalculateHours("2025-12-08", "22:00", "2025-12-09", "06:00")
	assert.True(t, ok)
	assert.Equal(t, "8", got)

	got, ok = form.CalculateHours("2025-12-08", "08:00", "2025-12-08", "08:20")
	assert.True(t, ok)
	assert.Equal(t, "0,33", got)

	_, ok = form.CalculateHours("2025-12-08", "08:00", "2025-12-08", "08:00")
	assert.False(t, ok)
	_, ok = form.CalculateHours("2025-12-08", "", "2025-12-08", "08:00")
	assert.False(t, ok)
}
