package services

import (
	"errors"
	"fmt"

	"github.com/rogpool/pool-service-api/store"
)

// Error kinds. Match with errors.Is; controllers map each kind to an HTTP status.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("service unavailable")
	ErrInternal     = errors.New("internal error")
)

// Error is a business-rule failure carrying a machine readable code
type Error struct {
	Kind    error
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the kind so errors.Is(err, ErrNotFound) works
func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, code, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// fromStore converts persistence errors. notFoundCode names the entity for 404s.
func fromStore(err error, notFoundCode, notFoundMessage string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return newError(ErrNotFound, notFoundCode, "%s", notFoundMessage)
	case errors.Is(err, store.ErrDuplicate):
		return newError(ErrConflict, "DUPLICATE", "Record already exists")
	case errors.Is(err, store.ErrUnavailable):
		return newError(ErrUnavailable, "SERVICE_UNAVAILABLE", "Database is unavailable")
	}
	return &Error{Kind: ErrInternal, Code: "INTERNAL_ERROR", Message: fmt.Sprintf("unexpected datastore error: %v", err)}
}
