// Package apperror defines the business error taxonomy shared by services and handlers.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound       Kind = "NOT_FOUND"
	KindConflict       Kind = "CONFLICT"
	KindForbidden      Kind = "FORBIDDEN"
	KindInvalidState   Kind = "INVALID_STATE"
	KindValidation     Kind = "VALIDATION"
	KindNotImplemented Kind = "NOT_IMPLEMENTED"
)

// Error is a deterministic business-rule violation. It is never retried.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]any
	Err     error
}

// Sentinels for errors.Is matching by kind
var (
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrConflict       = &Error{Kind: KindConflict}
	ErrForbidden      = &Error{Kind: KindForbidden}
	ErrInvalidState   = &Error{Kind: KindInvalidState}
	ErrValidation     = &Error{Kind: KindValidation}
	ErrNotImplemented = &Error{Kind: KindNotImplemented}
)

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match against a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// With attaches a context field identifying the offending entity.
func (e *Error) With(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

func InvalidState(format string, args ...any) *Error {
	return newError(KindInvalidState, format, args...)
}

func Validation(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

func NotImplemented(format string, args ...any) *Error {
	return newError(KindNotImplemented, format, args...)
}

// Forbidden reports an unsatisfied permission requirement. actual is "none"
// when the user holds no grant for key.
func Forbidden(key, required, actual string) *Error {
	return newError(KindForbidden, "insufficient permissions for '%s' (required: %s, has: %s)", key, required, actual).
		With("key", key).
		With("required", required).
		With("actual", actual)
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// HTTPStatus maps err onto a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindInvalidState:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
