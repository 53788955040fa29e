// Package schema holds the static form definitions of every workflow and the
// column layout the remote spreadsheet endpoint writes them with.
package schema

import (
	"github.com/ignatij/sheetflow/pkg/models"
	"github.com/pkg/errors"
)

// Revision selects one of the shipped field catalogs and its matching layout.
type Revision string

const (
	CurrentRevision Revision = "current"
	LegacyRevision  Revision = "legacy"
)

// Schema is everything a front end needs to render one workflow form.
type Schema struct {
	Workflow models.Workflow          `json:"workflow"`
	Title    string                   `json:"title"`
	Sheet    models.SheetID           `json:"sheet"`
	Fields   []models.FieldDescriptor `json:"fields"`
}

// IsForm is false for the menu and "nothing selected" pseudo-states.
func (s Schema) IsForm() bool {
	return len(s.Fields) > 0
}

// Field looks up a descriptor by id.
func (s Schema) Field(id string) (models.FieldDescriptor, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return models.FieldDescriptor{}, false
}

// FieldIDs returns the ids in declaration order.
func (s Schema) FieldIDs() []string {
	ids := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		ids = append(ids, f.ID)
	}
	return ids
}

// Catalog resolves workflows to schemas for one revision.
type Catalog struct {
	revision Revision
	schemas  map[models.Workflow]Schema
	layout   Layout
}

// NewCatalog builds the catalog for the given revision. An empty revision means current.
func NewCatalog(rev Revision) (*Catalog, error) {
	if rev == "" {
		rev = CurrentRevision
	}
	if rev != CurrentRevision && rev != LegacyRevision {
		return nil, errors.Errorf("unknown schema revision '%s'; must be 'current' or 'legacy'", rev)
	}
	hours := hoursField
	if rev == LegacyRevision {
		hours = extraHoursField
	}

	schemas := map[models.Workflow]Schema{
		models.RoutineWorkflow: {
			Workflow: models.RoutineWorkflow,
			Title:    "Control de Rutina",
			Sheet:    models.RoutineSheet,
			Fields:   routineFields(),
		},
		models.OperationalWorkflow: {
			Workflow: models.OperationalWorkflow,
			Title:    "Control Operacional",
			Sheet:    models.OperationalSheet,
			Fields:   operationalFields(),
		},
		models.TechnicianWorkflow: {
			Workflow: models.TechnicianWorkflow,
			Title:    "Registro Técnico de Bombeos",
			Sheet:    models.PumpingSheet,
			Fields:   technicianFields(),
		},
		models.PersonnelHoursWorkflow: {
			Workflow: models.PersonnelHoursWorkflow,
			Title:    "Registro de Horas",
			Sheet:    models.PersonnelHoursSheet,
			Fields:   personnelHoursFields(hours),
		},
		models.PersonnelVacationWorkflow: {
			Workflow: models.PersonnelVacationWorkflow,
			Title:    "Solicitud de Vacaciones",
			Sheet:    models.PersonnelVacationSheet,
			Fields:   personnelVacationFields(),
		},
	}
	return &Catalog{revision: rev, schemas: schemas, layout: layoutFor(rev)}, nil
}

// MustCatalog is NewCatalog for the shipped revisions, panicking on an unknown one.
func MustCatalog(rev Revision) *Catalog {
	c, err := NewCatalog(rev)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Revision() Revision {
	return c.revision
}

// Layout returns the column layout that matches this catalog revision.
func (c *Catalog) Layout() Layout {
	return c.layout
}

// Resolve maps a workflow to its schema. Menu and unknown workflows resolve to an
// empty schema carrying only the workflow.
func (c *Catalog) Resolve(wf models.Workflow) Schema {
	s, ok := c.schemas[wf]
	if !ok {
		return Schema{Workflow: wf}
	}
	fields := make([]models.FieldDescriptor, len(s.Fields))
	copy(fields, s.Fields)
	s.Fields = fields
	return s
}

// HoursField is the id of the personnel-hours worked-hours field for this revision.
func (c *Catalog) HoursField() string {
	if c.revision == LegacyRevision {
		return extraHoursField
	}
	return hoursField
}
