package registry

import "fmt"

// UnknownTransformError is returned by GetMetaData when no metadata is
// registered under the requested type id.
type UnknownTransformError struct {
	TypeID string
}

func (e *UnknownTransformError) Error() string {
	return fmt.Sprintf("registry: unknown transform type %q", e.TypeID)
}

// BadOptionError is returned by Instantiate when a supplied option fails
// type coercion, bound enforcement, or selection-membership enforcement.
type BadOptionError struct {
	Name   string
	Reason string
}

func (e *BadOptionError) Error() string {
	return fmt.Sprintf("registry: bad option %q: %s", e.Name, e.Reason)
}

// MissingInputError is returned by Instantiate when a declared non-variadic
// input slot has no supplied InputValue.
type MissingInputError struct {
	Slot string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("registry: missing input for slot %q", e.Slot)
}

// DuplicateIDError is returned when a configuration id collides with one
// already registered in the pipeline.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("registry: duplicate configuration id %q", e.ID)
}
