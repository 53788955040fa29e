package schema

import "github.com/ignatij/sheetflow/pkg/models"

const (
	hoursField      = "horas"
	extraHoursField = "horas_extra"

	layoutFull = "full"
	layoutWide = "wide"
)

var samplingPoints = []models.Option{
	{Value: "", Label: "Selecciona un punto"},
	{Value: "Parque Rioseco", Label: "Parque Rioseco"},
	{Value: "Parque Chaos", Label: "Parque Chaos"},
	{Value: "Parque Lopez Suarez", Label: "Parque López Suárez"},
	{Value: "Parque A Pinguela", Label: "Parque A Pinguela"},
	{Value: "Parque Compania", Label: "Parque Compañía"},
	{Value: "Zona Malecon", Label: "Zona Malecón"},
	{Value: "Calle Santiago", Label: "Calle Santiago"},
	{Value: "Parque Hospital", Label: "Parque Hospital"},
	{Value: "Parque Florida", Label: "Parque Florida"},
	{Value: "Oficina", Label: "Oficina"},
	{Value: "EDAR", Label: "EDAR"},
}

var pumpingStations = []models.Option{
	{Value: "Bombeo Moreda", Label: "Bombeo Moreda"},
	{Value: "Bombeo Fiolleda", Label: "Bombeo Fiolleda"},
	{Value: "Bombeo Chavaga", Label: "Bombeo Chavaga"},
	{Value: "Bombeo Cornado", Label: "Bombeo Cornado"},
	{Value: "Bombeo Sindrán", Label: "Bombeo Sindrán"},
}

func dateField() models.FieldDescriptor {
	return models.FieldDescriptor{ID: "date", Label: "Fecha", Type: models.DateField, Required: true}
}

func notesField() models.FieldDescriptor {
	return models.FieldDescriptor{ID: "observaciones", Label: "Observaciones", Type: models.TextareaField, Layout: layoutFull}
}

func routineFields() []models.FieldDescriptor {
	return []models.FieldDescriptor{
		dateField(),
		{ID: "punto_de_muestreo", Label: "Punto de Muestreo", Type: models.SelectField, Required: true, Options: samplingPoints, Layout: layoutFull},
		{ID: "turbidez", Label: "Turbidez", Type: models.TextField, Required: true},
		{ID: "ph", Label: "pH", Type: models.TextField, Required: true},
		{ID: "cloro", Label: "Cloro libre residual", Type: models.TextField, Required: true},
		{ID: "color", Label: "Color", Type: models.TextField},
		{ID: "olor", Label: "Olor", Type: models.TextField},
		{ID: "sabor", Label: "Sabor", Type: models.TextField},
		{ID: "operario", Label: "Operario", Type: models.TextField, Required: true, Layout: layoutFull},
		notesField(),
	}
}

// Order matches the sheet: pH, turbidity, chlorine.
func operationalFields() []models.FieldDescriptor {
	return []models.FieldDescriptor{
		dateField(),
		{ID: "hora", Label: "Hora", Type: models.TimeField, Required: true},
		{ID: "ph", Label: "pH", Type: models.TextField, Required: true},
		{ID: "turbidez", Label: "Turbidez", Type: models.TextField, Required: true},
		{ID: "cloro", Label: "Cloro libre residual", Type: models.TextField, Required: true},
		{ID: "operario", Label: "Operario", Type: models.TextField, Required: true, Layout: layoutFull},
		notesField(),
	}
}

func technicianFields() []models.FieldDescriptor {
	return []models.FieldDescriptor{
		dateField(),
		{ID: "bombeo", Label: "Estación de Bombeo", Type: models.SelectField, Required: true, Options: pumpingStations, Layout: layoutWide},
		{ID: "total_bomba_1", Label: "Total Bomba 1", Type: models.NumberField, Required: true},
		{ID: "horas_bomba_1", Label: "Horas Bomba 1", Type: models.NumberField, Required: true},
		{ID: "total_bomba_2", Label: "Total Bomba 2", Type: models.NumberField, Required: true},
		{ID: "horas_bomba_2", Label: "Horas Bomba 2", Type: models.NumberField, Required: true},
		notesField(),
	}
}

func personnelHoursFields(hours string) []models.FieldDescriptor {
	label := "Horas"
	if hours == extraHoursField {
		label = "Horas Extra"
	}
	return []models.FieldDescriptor{
		{ID: "fecha_inicio", Label: "Fecha Inicio", Type: models.DateField, Required: true},
		{ID: "fecha_fin", Label: "Fecha Fin", Type: models.DateField, Required: true},
		{ID: "hora_inicio", Label: "Hora Inicio", Type: models.TimeField, Required: true},
		{ID: "hora_fin", Label: "Hora Fin", Type: models.TimeField, Required: true},
		{ID: "actuacion", Label: "Actuación / Descripción", Type: models.TextField, Required: true, Layout: layoutWide},
		{ID: hours, Label: label, Type: models.TextField, Required: true, Layout: layoutWide},
		{ID: "nombre", Label: "Nombre", Type: models.TextField, Required: true, Layout: layoutWide},
		notesField(),
	}
}

func personnelVacationFields() []models.FieldDescriptor {
	return []models.FieldDescriptor{
		{ID: "nombre", Label: "Nombre", Type: models.TextField, Required: true},
		{ID: "apellidos", Label: "Apellidos", Type: models.TextField, Required: true},
		{ID: "fecha_inicio", Label: "F. Inicio", Type: models.DateField, Required: true},
		{ID: "fecha_fin", Label: "F. Fin", Type: models.DateField, Required: true},
		{ID: "dias", Label: "Días", Type: models.NumberField, Required: true},
	}
}
