// Package apperr defines the caller-visible error taxonomy shared by the
// domain services. Handlers translate these into structured HTTP responses;
// anything else escaping a service is treated as an internal fault.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a caller-visible failure.
type Kind int

const (
	// KindConflict marks a uniqueness violation on add ("already exists").
	KindConflict Kind = iota + 1
	// KindNotFound marks a missing entity or relation ("does not exist").
	KindNotFound
	// KindForbidden marks a non-owner attempting a mutation.
	KindForbidden
	// KindEmptyResult marks an aggregation that produced nothing.
	KindEmptyResult
)

// Error is a classified, user-facing failure with a single message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Conflict builds an already-exists error.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a does-not-exist error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Forbidden builds an ownership violation error.
func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// EmptyResult builds an empty-aggregation error.
func EmptyResult(format string, args ...any) *Error {
	return &Error{Kind: KindEmptyResult, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// IsConflict reports whether err is a uniqueness conflict.
func IsConflict(err error) bool { return IsKind(err, KindConflict) }

// IsNotFound reports whether err is a missing-entity failure.
func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }

// IsForbidden reports whether err is an ownership failure.
func IsForbidden(err error) bool { return IsKind(err, KindForbidden) }

// IsEmptyResult reports whether err is an empty-aggregation failure.
func IsEmptyResult(err error) bool { return IsKind(err, KindEmptyResult) }

// ValidationError collects per-field messages for malformed input. It is
// recoverable: the caller receives every failing field in one response.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidation returns an empty validation error ready to accumulate fields.
func NewValidation() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

// Invalid is a shorthand for a single-field validation failure.
func Invalid(field, format string, args ...any) *ValidationError {
	v := NewValidation()
	v.Add(field, format, args...)
	return v
}

// Add appends a message for the named field.
func (e *ValidationError) Add(field, format string, args ...any) {
	e.Fields[field] = append(e.Fields[field], fmt.Sprintf(format, args...))
}

// Empty reports whether no field failures were recorded.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// ErrOrNil returns the error when any field failed, nil otherwise.
func (e *ValidationError) ErrOrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(e.Fields[field], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// IsValidation reports whether err is a field validation failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// AsValidation extracts the validation error when present.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
