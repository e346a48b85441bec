package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectionFailure means the target database could not be reached.
	ErrConnectionFailure = errors.New("connection failure")
	// ErrSchemaConflict means an object exists under the wanted name with an
	// incompatible definition. Resolving it is an operator task.
	ErrSchemaConflict = errors.New("schema conflict")
	// ErrUniquenessViolation is returned by writes that would duplicate a
	// value covered by a unique index.
	ErrUniquenessViolation = errors.New("uniqueness violation")

	ErrCollectionExists   = errors.New("collection already exists")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrIndexNotFound      = errors.New("index not found")
	ErrInvalidSpec        = errors.New("invalid index spec")
)

// SchemaConflictError describes which object clashed and how.
type SchemaConflictError struct {
	Collection string
	Name       string
	Existing   string
	Wanted     string
}

func (e *SchemaConflictError) Error() string {
	if e.Name == "" || e.Name == e.Collection {
		return fmt.Sprintf("schema conflict on %s: existing %s, wanted %s", e.Collection, e.Existing, e.Wanted)
	}
	return fmt.Sprintf("schema conflict on %s.%s: existing %s, wanted %s", e.Collection, e.Name, e.Existing, e.Wanted)
}

func (e *SchemaConflictError) Unwrap() error { return ErrSchemaConflict }
