package sepa

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrIncompleteRecord is wrapped by a RowError when a record has fewer
	// positional fields than a transaction needs.
	ErrIncompleteRecord = errors.New("record incomplete or wrong delimiter")

	// ErrIncompleteBatch is returned by Batch.Validate when a required field
	// was never set.
	ErrIncompleteBatch = errors.New("batch is incomplete")
)

// =============================================================================
// FIELD VALIDATION ERROR
// =============================================================================

// FieldValidationError reports a single field that failed its rulebook
// grammar. The field keeps its previous value.
type FieldValidationError struct {
	// Field is the name of the field that failed validation.
	Field string

	// Value is the rejected input, after normalization.
	Value string

	// Message is a human-readable error message.
	Message string
}

// Error implements the error interface.
func (e *FieldValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("field '%s': %s (value: '%s')", e.Field, e.Message, e.Value)
}

func fieldError(field, value, format string, args ...any) *FieldValidationError {
	return &FieldValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
	}
}

// =============================================================================
// ROW ERROR
// =============================================================================

// RowError tags an ingestion failure with the 1-based record number it came
// from.
type RowError struct {
	Row int
	Err error
}

// Error implements the error interface.
func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// Unwrap exposes the underlying field error.
func (e *RowError) Unwrap() error {
	return e.Err
}

// Field returns the failing field name, or "" when the row failed for a
// reason other than a field rule.
func (e *RowError) Field() string {
	var fe *FieldValidationError
	if errors.As(e.Err, &fe) {
		return fe.Field
	}
	return ""
}

// =============================================================================
// AGGREGATE VALIDATION ERROR
// =============================================================================

// AggregateValidationError carries every error collected by an operation
// that keeps going after the first failure.
type AggregateValidationError struct {
	Errors []error
}

// Error implements the error interface.
func (e *AggregateValidationError) Error() string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("validation failed with %d error(s)", len(e.Errors)))
	for _, err := range e.Errors {
		builder.WriteString("\n  ")
		builder.WriteString(err.Error())
	}
	return builder.String()
}

// Unwrap lets errors.Is and errors.As see every collected error.
func (e *AggregateValidationError) Unwrap() []error {
	return e.Errors
}

// =============================================================================
// TYPE CONSTRAINT ERROR
// =============================================================================

// TypeConstraintError is a programmer error: an object was attached to a
// parent-child relation it cannot take part in.
type TypeConstraintError struct {
	Relation string
	Message  string
}

// Error implements the error interface.
func (e *TypeConstraintError) Error() string {
	return fmt.Sprintf("%s: %s", e.Relation, e.Message)
}
