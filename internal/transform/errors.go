package transform

import "fmt"

// MissingHandleError is returned when a NodeRef input cannot be resolved to
// any configuration's declared output (spec §7's configuration-error set).
type MissingHandleError struct {
	ColumnID string
}

func (e *MissingHandleError) Error() string {
	return fmt.Sprintf("transform: no configuration produces output %q", e.ColumnID)
}

// CircularDependencyError is returned when the manager's topological sort
// detects a cycle in the supplied graph description.
type CircularDependencyError struct {
	NodeIDs []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("transform: circular dependency among nodes %v", e.NodeIDs)
}
