// Package apperrors defines the structured error kinds the service surfaces
// to its transport layer: every failed operation yields exactly one error
// carrying a kind and a human-readable message.
package apperrors

import (
	"errors"
	"fmt"
)

type Kind string

const (
	// KindInvalidInput marks malformed, missing or empty required input.
	KindInvalidInput Kind = "invalid_input"
	// KindInvalidReference marks a supplied category or variant identity
	// that does not resolve to an existing row.
	KindInvalidReference Kind = "invalid_reference"
	// KindNotFound marks an absent target entity.
	KindNotFound Kind = "not_found"
	// KindInternal marks unexpected store or normalizer failures.
	KindInternal Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func InvalidInput(msg string) error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

func InvalidInputf(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func InvalidReference(msg string) error {
	return &Error{Kind: KindInvalidReference, Message: msg}
}

func InvalidReferencef(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidReference, Message: fmt.Sprintf(format, args...)}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func NotFoundf(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected failure. The wrapped error is kept for logs;
// callers only ever see the message.
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// Ensure returns err unchanged when it already carries a kind, otherwise
// wraps it as Internal with msg.
func Ensure(err error, msg string) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Internal(msg, err)
}

// KindOf extracts the kind of err, defaulting to KindInternal for errors
// that did not originate from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf extracts the user-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
