package service

import (
	"github.com/ignatij/sheetflow/pkg/models"
	"github.com/ignatij/sheetflow/pkg/schema"
)

// Screen is what the controller currently shows. The set of screens is closed:
// HomeScreen, PersonnelMenuScreen and FormScreen.
type Screen interface {
	Name() string
	Workflow() models.Workflow
	screen()
}

// HomeScreen is the initial workflow picker.
type HomeScreen struct{}

func (HomeScreen) Name() string              { return "home" }
func (HomeScreen) Workflow() models.Workflow { return models.NoWorkflow }
func (HomeScreen) screen()                   {}

// PersonnelMenuScreen picks between the two personnel forms.
type PersonnelMenuScreen struct{}

func (PersonnelMenuScreen) Name() string              { return "personnel_menu" }
func (PersonnelMenuScreen) Workflow() models.Workflow { return models.PersonnelWorkflow }
func (PersonnelMenuScreen) screen()                   {}

// FormScreen shows the form of one leaf workflow.
type FormScreen struct {
	Schema schema.Schema
}

func (s FormScreen) Name() string              { return "form" }
func (s FormScreen) Workflow() models.Workflow { return s.Schema.Workflow }
func (FormScreen) screen()                     {}

// allowed reports whether wf can be selected from s.
func allowed(s Screen, wf models.Workflow) bool {
	switch s.(type) {
	case HomeScreen:
		switch wf {
		case models.RoutineWorkflow, models.OperationalWorkflow, models.TechnicianWorkflow, models.PersonnelWorkflow:
			return true
		}
	case PersonnelMenuScreen:
		return wf.IsPersonnel()
	}
	return false
}

// previous returns the screen back-navigation leads to.
func previous(s Screen) Screen {
	if f, ok := s.(FormScreen); ok && f.Workflow().IsPersonnel() {
		return PersonnelMenuScreen{}
	}
	return HomeScreen{}
}
