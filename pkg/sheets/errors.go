package sheets

import (
	"github.com/pkg/errors"
)

// Kind classifies why a submission failed.
type Kind string

const (
	ConfigurationError       Kind = "configuration"        // bad local setup, no request was made
	RemoteConfigurationError Kind = "remote_configuration" // endpoint could not find the sheet
	AccessError              Kind = "access"               // target document missing or not shared
	ServerError              Kind = "server"               // non-2xx transport status
	ProtocolError            Kind = "protocol"             // success status but body is not JSON
	RemoteLogicError         Kind = "remote_logic"         // endpoint answered status "error"
	NetworkError             Kind = "network"              // endpoint unreachable
)

// Error is returned by Client.Submit for every failed attempt. Message is
// the operator-facing text.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int    // set for ServerError
	Body       string // raw response text when one was read
	cause      error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the transport error behind a NetworkError, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// KindOf returns the Kind of a submission error, or "" if err is not one.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// IsKind reports whether err is a submission error of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
