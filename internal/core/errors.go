package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingColumns is matched by MissingColumnsError.
	ErrMissingColumns = errors.New("missing required columns")

	// ErrLocationNotFound is returned when an item references a location the
	// user does not own.
	ErrLocationNotFound = errors.New("location not found")

	// ErrItemNotFound is returned for unknown or foreign item ids.
	ErrItemNotFound = errors.New("item not found")

	// ErrImportNotFound is returned for unknown or foreign import ids.
	ErrImportNotFound = errors.New("import not found")

	// ErrEmptyFile is returned when an import input has no header row.
	ErrEmptyFile = errors.New("empty file")

	// ErrInvalidInput is wrapped by validation failures of API payloads.
	ErrInvalidInput = errors.New("invalid input")
)

// MissingColumnsError aborts an import before any row is processed.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumns, strings.Join(e.Columns, ", "))
}

func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingColumns
}

// MissingRequiredFieldError fails a single row.
type MissingRequiredFieldError struct {
	Row   int
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("required field %s is empty", e.Field)
}
