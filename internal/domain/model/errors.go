package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for row validation.
var (
	// ErrMalformedRow marks a row whose time or name cannot be read.
	ErrMalformedRow = errors.New("malformed row")
	// ErrUnblockableRow marks a row that has no age band.
	ErrUnblockableRow = errors.New("unblockable row")
)

// RowError locates a row-level failure.
type RowError struct {
	Source string
	Line   int
	Field  string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %d: %s %q: %v", e.Source, e.Line, e.Field, e.Value, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Malformed builds a RowError of kind ErrMalformedRow.
func Malformed(source string, line int, field, value string, cause error) *RowError {
	return newRowError(ErrMalformedRow, source, line, field, value, cause)
}

// Unblockable builds a RowError of kind ErrUnblockableRow.
func Unblockable(source string, line int, field, value string, cause error) *RowError {
	return newRowError(ErrUnblockableRow, source, line, field, value, cause)
}

func newRowError(kind error, source string, line int, field, value string, cause error) *RowError {
	err := kind
	if cause != nil {
		err = fmt.Errorf("%w: %w", kind, cause)
	}
	return &RowError{Source: source, Line: line, Field: field, Value: value, Err: err}
}
