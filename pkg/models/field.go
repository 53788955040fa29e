package models

type FieldType string

const (
	TextField     FieldType = "text"
	NumberField   FieldType = "number"
	DateField     FieldType = "date"
	TimeField     FieldType = "time"
	TextareaField FieldType = "textarea"
	SelectField   FieldType = "select"
)

// Option is one choice of a select field.
type Option struct {
	Value string `json:"value" yaml:"value"` // Value submitted to the sheet
	Label string `json:"label" yaml:"label"` // Text shown to the operator
}

// FieldDescriptor describes one input of a workflow form. Descriptors are static.
type FieldDescriptor struct {
	ID       string    `json:"id"`                // Unique key within the workflow (e.g., "ph")
	Label    string    `json:"label"`             // Display label
	Type     FieldType `json:"type"`              // Input kind
	Required bool      `json:"required"`          // Enforced by the front end at submit time
	ReadOnly bool      `json:"read_only"`         // Rejects edits
	Options  []Option  `json:"options,omitempty"` // Choices for select fields
	Layout   string    `json:"layout,omitempty"`  // Layout hint for renderers (e.g., "wide")
}
