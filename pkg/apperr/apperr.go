// Package apperr defines the error kinds surfaced to API clients.
package apperr

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindConflict          Kind = "conflict"
	KindInvalidTransition Kind = "invalid_transition"
	KindUnauthorized      Kind = "unauthorized"
	KindInternal          Kind = "internal"
)

// Error carries a stable Kind plus the stack of the place it was created.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	Stack   []byte
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) StackTrace() []byte { return e.Stack }

func New(kind Kind, message string, err error) *Error {
	var stack []byte
	if err != nil {
		if stackErr, ok := err.(*goerrors.Error); ok {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}
	return &Error{Kind: kind, Message: message, Err: err, Stack: stack}
}

func Validation(message string) *Error { return New(KindValidation, message, nil) }

func NotFound(message string) *Error { return New(KindNotFound, message, nil) }

func Forbidden(message string) *Error { return New(KindForbidden, message, nil) }

func Conflict(message string) *Error { return New(KindConflict, message, nil) }

func InvalidTransition(message string) *Error { return New(KindInvalidTransition, message, nil) }

func Unauthorized(message string) *Error { return New(KindUnauthorized, message, nil) }

func Internal(message string, err error) *Error { return New(KindInternal, message, err) }

// KindOf reports the kind of err. Errors that did not originate here are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the client-facing message of err. Internal errors get a
// generic text so driver details never reach the caller.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal error"
}
