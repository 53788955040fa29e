package models

import "github.com/pkg/errors"

// Workflow identifies which record type a form collects.
type Workflow string

const (
	NoWorkflow                Workflow = ""
	RoutineWorkflow           Workflow = "rutina"
	OperationalWorkflow       Workflow = "operacional"
	TechnicianWorkflow        Workflow = "tecnico"
	PersonnelWorkflow         Workflow = "personal" // menu pseudo-state, has no form
	PersonnelHoursWorkflow    Workflow = "personal_horas"
	PersonnelVacationWorkflow Workflow = "personal_vacaciones"
)

// Workflows lists every selectable workflow, menu included, in display order.
var Workflows = []Workflow{
	RoutineWorkflow,
	OperationalWorkflow,
	TechnicianWorkflow,
	PersonnelWorkflow,
	PersonnelHoursWorkflow,
	PersonnelVacationWorkflow,
}

// ParseWorkflow converts a user supplied name into a Workflow.
func ParseWorkflow(name string) (Workflow, error) {
	for _, wf := range Workflows {
		if string(wf) == name {
			return wf, nil
		}
	}
	return NoWorkflow, errors.Errorf("unknown workflow '%s'", name)
}

// IsPersonnel reports whether submissions of this workflow are journaled locally.
func (w Workflow) IsPersonnel() bool {
	return w == PersonnelHoursWorkflow || w == PersonnelVacationWorkflow
}

// HasForm reports whether the workflow renders a form (as opposed to a menu).
func (w Workflow) HasForm() bool {
	switch w {
	case RoutineWorkflow, OperationalWorkflow, TechnicianWorkflow,
		PersonnelHoursWorkflow, PersonnelVacationWorkflow:
		return true
	}
	return false
}

// SheetID names a record sink recognised by the remote endpoint. Case sensitive.
type SheetID string

const (
	RoutineSheet           SheetID = "Rutina"
	OperationalSheet       SheetID = "Operacional"
	PumpingSheet           SheetID = "Bombeos"
	PersonnelHoursSheet    SheetID = "Registro_horario"
	PersonnelVacationSheet SheetID = "Vacaciones"
)

// Sheets is the fixed set of sinks the endpoint script knows about.
var Sheets = []SheetID{
	RoutineSheet,
	OperationalSheet,
	PumpingSheet,
	PersonnelHoursSheet,
	PersonnelVacationSheet,
}
