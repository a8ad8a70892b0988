package services

import "net/http"

// Kind classifies a service failure for the transport layers.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
)

// FieldError is a single field-level validation violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the failure taxonomy shared by the REST and GraphQL surfaces.
// Validation failures carry every violated field, not just the first.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
}

func (e *Error) Error() string { return e.Message }

// ErrValidation builds a validation failure from the collected violations.
func ErrValidation(fields []FieldError) *Error {
	return &Error{Kind: KindValidation, Message: "invalid input", Fields: fields}
}

// ErrUnauthenticated is returned when an operation requires an identity and
// none is present.
func ErrUnauthenticated() *Error {
	return &Error{Kind: KindUnauthenticated, Message: "not authenticated"}
}

// ErrForbidden is returned on an ownership mismatch.
func ErrForbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// ErrNotFound is returned when a requested resource does not exist.
func ErrNotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// ErrInternal wraps anything unclassified.
func ErrInternal(message string) *Error {
	return &Error{Kind: KindInternal, Message: message}
}

// AsError normalizes any error to the taxonomy; unknown errors become internal.
func AsError(err error) *Error {
	if e, ok := err.(*Error); ok {
		return e
	}
	return ErrInternal("internal server error")
}

// HTTPStatus maps a service error onto its HTTP status code.
func HTTPStatus(err error) int {
	switch AsError(err).Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
