package schema

import (
	"fmt"
	"slices"

	"github.com/ignatij/sheetflow/pkg/models"
)

// TimestampColumn marks a column the endpoint fills with its own submission time.
const TimestampColumn = "@timestamp"

// Column is one spreadsheet column and the payload key that feeds it.
type Column struct {
	Header string `json:"header"`
	Field  string `json:"field"`
}

// Layout is the column order the endpoint script appends rows with, per sheet.
type Layout struct {
	Revision Revision                    `json:"revision"`
	Sheets   map[models.SheetID][]Column `json:"sheets"`
}

// Drift is a disagreement between the form catalog and the layout.
type Drift struct {
	Sheet  models.SheetID
	Field  string
	Reason string
}

func (d Drift) String() string {
	return fmt.Sprintf("%s.%s: %s", d.Sheet, d.Field, d.Reason)
}

// Check lists fields the catalog collects that no column writes, and columns
// whose field the catalog never collects.
func (l Layout) Check(c *Catalog) []Drift {
	var drifts []Drift
	for _, wf := range models.Workflows {
		s := c.Resolve(wf)
		if !s.IsForm() {
			continue
		}
		cols, ok := l.Sheets[s.Sheet]
		if !ok {
			drifts = append(drifts, Drift{Sheet: s.Sheet, Reason: "sheet missing from layout"})
			continue
		}
		written := make([]string, 0, len(cols))
		for _, col := range cols {
			if col.Field == TimestampColumn {
				continue
			}
			written = append(written, col.Field)
			if _, ok := s.Field(col.Field); !ok {
				drifts = append(drifts, Drift{Sheet: s.Sheet, Field: col.Field, Reason: "column has no form field"})
			}
		}
		for _, f := range s.Fields {
			if !slices.Contains(written, f.ID) {
				drifts = append(drifts, Drift{Sheet: s.Sheet, Field: f.ID, Reason: "form field is not written by the endpoint"})
			}
		}
	}
	return drifts
}

func layoutFor(rev Revision) Layout {
	hours := Column{Header: "Horas", Field: hoursField}
	if rev == LegacyRevision {
		hours = Column{Header: "Horas Extra", Field: extraHoursField}
	}
	return Layout{
		Revision: rev,
		Sheets: map[models.SheetID][]Column{
			models.RoutineSheet: {
				{Header: "Fecha", Field: "date"},
				{Header: "Punto", Field: "punto_de_muestreo"},
				{Header: "Turbidez", Field: "turbidez"},
				{Header: "pH", Field: "ph"},
				{Header: "Cloro", Field: "cloro"},
				{Header: "Color", Field: "color"},
				{Header: "Olor", Field: "olor"},
				{Header: "Sabor", Field: "sabor"},
				{Header: "Operario", Field: "operario"},
				{Header: "Observaciones", Field: "observaciones"},
			},
			models.OperationalSheet: {
				{Header: "Fecha", Field: "date"},
				{Header: "Hora", Field: "hora"},
				{Header: "pH", Field: "ph"},
				{Header: "Turbidez", Field: "turbidez"},
				{Header: "Cloro", Field: "cloro"},
				{Header: "Operario", Field: "operario"},
				{Header: "Observaciones", Field: "observaciones"},
			},
			models.PumpingSheet: {
				{Header: "Fecha", Field: "date"},
				{Header: "Bombeo", Field: "bombeo"},
				{Header: "Total Bomba 1", Field: "total_bomba_1"},
				{Header: "Horas Bomba 1", Field: "horas_bomba_1"},
				{Header: "Total Bomba 2", Field: "total_bomba_2"},
				{Header: "Horas Bomba 2", Field: "horas_bomba_2"},
				{Header: "Observaciones", Field: "observaciones"},
			},
			models.PersonnelHoursSheet: {
				{Header: "F. Inicio", Field: "fecha_inicio"},
				{Header: "F. Fin", Field: "fecha_fin"},
				{Header: "H. Inicio", Field: "hora_inicio"},
				{Header: "H. Fin", Field: "hora_fin"},
				{Header: "Actuación", Field: "actuacion"},
				hours,
				{Header: "Nombre", Field: "nombre"},
				{Header: "Observaciones", Field: "observaciones"},
				{Header: "F. Registro", Field: TimestampColumn},
			},
			models.PersonnelVacationSheet: {
				{Header: "Nombre", Field: "nombre"},
				{Header: "Apellidos", Field: "apellidos"},
				{Header: "F. Inicio", Field: "fecha_inicio"},
				{Header: "F. Fin", Field: "fecha_fin"},
				{Header: "Días", Field: "dias"},
				{Header: "F. Registro", Field: TimestampColumn},
			},
		},
	}
}
