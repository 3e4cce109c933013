package domain

import "fmt"

// ErrorKind is the small, closed error taxonomy every handler maps to an
// HTTP status. Background tasks never surface these to a client; they log
// and continue instead.
type ErrorKind string

const (
	ErrValidation         ErrorKind = "validation"
	ErrAuthentication     ErrorKind = "authentication"
	ErrAuthorization      ErrorKind = "authorization"
	ErrNotFound           ErrorKind = "not_found"
	ErrExternalUnavailable ErrorKind = "external_unavailable"
	ErrConsistencyConflict ErrorKind = "consistency_conflict"
	ErrInternal           ErrorKind = "internal"
)

// Error is the typed error every port and service method returns instead of
// a bare error, so that the HTTP layer can map it without re-deriving the
// status from the error string.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
	// Details carries structured extra fields a handler should merge into
	// the JSON error body (e.g. remaining_pickups on a hub-arrival gate
	// rejection). Optional.
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func Authorizationf(format string, args ...any) *Error {
	return &Error{Kind: ErrAuthorization, Message: fmt.Sprintf(format, args...)}
}

func ConsistencyConflictf(format string, args ...any) *Error {
	return &Error{Kind: ErrConsistencyConflict, Message: fmt.Sprintf(format, args...)}
}

func Internalf(cause error, format string, args ...any) *Error {
	return &Error{Kind: ErrInternal, Message: fmt.Sprintf(format, args...), Cause: cause}
}
