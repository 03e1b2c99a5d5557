// Package errors defines the error taxonomy of the service and its mapping to HTTP responses.
package errors

import (
	"errors"
	"fmt"

	"github.com/al3xb0/mindpal-task/internal/model"
)

// Kind classifies an error for callers and for the HTTP layer.
type Kind string

const (
	// Client-caused, never retried automatically
	KindInvalidPage    Kind = "INVALID_PAGE"
	KindInvalidFilter  Kind = "INVALID_FILTER"
	KindInvalidRequest Kind = "INVALID_REQUEST"

	// Remote failures, user-retryable
	KindUpstream Kind = "UPSTREAM_ERROR"
	KindStore    Kind = "STORE_ERROR"

	// Session problems
	KindAuthRequired Kind = "AUTH_REQUIRED"

	// Advisory no-ops
	KindRateLimited         Kind = "RATE_LIMITED"
	KindOperationInProgress Kind = "OPERATION_IN_PROGRESS"

	KindInternal Kind = "INTERNAL_ERROR"
)

// Error is a classified error with an optional field-level breakdown.
type Error struct {
	Kind    Kind
	Message string
	Details []model.FieldError
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error.
func New(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

func InvalidPage(message string) *Error {
	return New(KindInvalidPage, message, nil)
}

func InvalidFilter(details []model.FieldError) *Error {
	e := New(KindInvalidFilter, "Invalid filter parameters", nil)
	e.Details = details
	return e
}

func InvalidRequest(message string, cause error) *Error {
	return New(KindInvalidRequest, message, cause)
}

// Upstream reports a failed or rejected directory call. The message is
// surfaced to the client verbatim.
func Upstream(message string, cause error) *Error {
	return New(KindUpstream, message, cause)
}

func Store(message string, cause error) *Error {
	return New(KindStore, message, cause)
}

func AuthRequired(message string) *Error {
	return New(KindAuthRequired, message, nil)
}

func Internal(message string, cause error) *Error {
	return New(KindInternal, message, cause)
}

// KindOf extracts the kind from an error chain. Unclassified errors are internal.
func KindOf(err error) Kind {
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
