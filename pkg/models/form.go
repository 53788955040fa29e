package models

import "maps"

// FormState maps field id to its current value. Numbers are kept as their decimal text.
type FormState map[string]string

// Clone returns an independent copy of the state.
func (f FormState) Clone() FormState {
	if f == nil {
		return FormState{}
	}
	return maps.Clone(f)
}

// ErrorState maps field id to a validation message. A missing key means no error.
type ErrorState map[string]string

// Clone returns an independent copy of the errors.
func (e ErrorState) Clone() ErrorState {
	if e == nil {
		return ErrorState{}
	}
	return maps.Clone(e)
}

type StatusKind string

const (
	IdleStatus    StatusKind = "idle"
	SuccessStatus StatusKind = "success"
	ErrorStatus   StatusKind = "error"
)

// SubmissionStatus is the outcome of the last submission attempt.
type SubmissionStatus struct {
	Kind    StatusKind `json:"kind"`    // "idle", "success", "error"
	Message string     `json:"message"` // Text shown to the operator
}

// IdleSubmission is the neutral resting status.
var IdleSubmission = SubmissionStatus{Kind: IdleStatus}
