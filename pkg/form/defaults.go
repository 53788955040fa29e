package form

import (
	"time"

	"github.com/ignatij/sheetflow/pkg/models"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// BuildInitialState returns the default values of a freshly opened form. Only
// ids from fields appear in the result; today and now are computed once.
func BuildInitialState(wf models.Workflow, fields []models.FieldDescriptor, now time.Time) models.FormState {
	today := now.Format(DateLayout)
	clock := now.Format(TimeLayout)

	defaults := map[string]string{}
	switch wf {
	case models.RoutineWorkflow, models.TechnicianWorkflow:
		defaults["date"] = today
	case models.OperationalWorkflow:
		defaults["date"] = today
		defaults["hora"] = clock
	case models.PersonnelHoursWorkflow:
		defaults["fecha_inicio"] = today
		defaults["fecha_fin"] = today
		defaults["hora_inicio"] = clock
		defaults["hora_fin"] = clock
	case models.PersonnelVacationWorkflow:
		defaults["fecha_inicio"] = today
		defaults["fecha_fin"] = today
		defaults["dias"] = "1"
	}

	state := make(models.FormState, len(fields))
	for _, f := range fields {
		if v, ok := defaults[f.ID]; ok {
			state[f.ID] = v
			continue
		}
		if f.Type == models.SelectField && len(f.Options) > 0 {
			state[f.ID] = f.Options[0].Value
			continue
		}
		state[f.ID] = ""
	}
	return state
}
