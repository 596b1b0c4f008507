// Package failure describes the kinds of error that can be produced while
// serving a request. Components create errors with a kind at the point of
// failure and the HTTP handlers map the kind to a status exactly once.
package failure

import (
	"errors"
	"net/http"
)

// Kind classifies an error by the part of the request pipeline that failed.
type Kind int

const (
	// KindUnknown is reported for errors that were not created by this package.
	KindUnknown Kind = iota
	// KindValidation is a missing or malformed request parameter.
	KindValidation
	// KindStoreUnavailable is a failure reading from or writing to the token store.
	KindStoreUnavailable
	// KindAcquisition is a failed exchange of a session cookie for an access token.
	KindAcquisition
	// KindSchemaValidation is an identity response that did not have the expected shape.
	KindSchemaValidation
	// KindUpstream is a failed call to a proxied resource endpoint.
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindStoreUnavailable:
		return "store_unavailable"
	case KindAcquisition:
		return "acquisition"
	case KindSchemaValidation:
		return "schema_validation"
	case KindUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// Error is an error with a kind and a message that is safe to return to the
// client. The wrapped cause is available through Unwrap for logging.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// New creates an error of the given kind. The cause may be nil.
func New(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     cause,
	}
}

// Validation creates a KindValidation error with no underlying cause.
func Validation(message string) *Error {
	return New(KindValidation, message, nil)
}

// Error returns the message, followed by the cause unless the message already
// is the cause's text.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if cause := e.Err.Error(); cause != e.Message {
		return e.Message + ": " + cause
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status and client message for this error. Only
// validation failures are client errors: everything else is reported as an
// internal failure, carrying the message of the error.
func (e *Error) Status() (int, string) {
	if e.Kind == KindValidation {
		return http.StatusBadRequest, e.Message
	}
	return http.StatusInternalServerError, e.Message
}

// KindOf returns the kind of the first *Error in the chain, or KindUnknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
