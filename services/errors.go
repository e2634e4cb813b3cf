package services

import "errors"

// ErrorKind classifies engine failures so the HTTP layer can map them to
// status codes without string matching.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindBadRequest
	KindForbidden
	KindConflict
)

// ServiceError is the typed error returned by every engine operation when
// a precondition or validation fails. Unexpected datastore failures are
// returned as plain errors and surface as 500s.
type ServiceError struct {
	Kind    ErrorKind
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func NotFound(msg string) error {
	return &ServiceError{Kind: KindNotFound, Message: msg}
}

func BadRequest(msg string) error {
	return &ServiceError{Kind: KindBadRequest, Message: msg}
}

func Forbidden(msg string) error {
	return &ServiceError{Kind: KindForbidden, Message: msg}
}

func Conflict(msg string) error {
	return &ServiceError{Kind: KindConflict, Message: msg}
}

// KindOf returns the error's kind, or 0 when err is not a ServiceError.
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
