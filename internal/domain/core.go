// Package domain holds the bookkeeping entities and the error taxonomy
// shared by storage, the importer, the rule engine and the HTTP layer.
//
// Each entity comes in two shapes: a "reference" form whose related
// records are plain UUIDs (the persisted shape) and, where the API needs
// it, an "expanded" form with the related record inlined.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// DataIntegrityError reports a stored or submitted value that violates a
// field-level invariant, such as a malformed rule amount expression. It is
// raised at input-validation time and again when a stored value is read
// back for evaluation.
type DataIntegrityError struct {
	Msg   string
	Field string
	Value string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("%s (invalid: %s = %s)", e.Msg, e.Field, e.Value)
}

// ValidationError reports input that cannot be accepted, such as a fit-id
// that does not match its institution's extraction pattern.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError reports a lookup by id that matched no record.
type NotFoundError struct {
	ID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no record found with id %s", e.ID)
}
