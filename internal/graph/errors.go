package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/organization-ai-projects/simcore/internal/core"
)

// ErrEmptySystemID is returned when registering a system without an id.
var ErrEmptySystemID = errors.New("system id must not be empty")

// DuplicateSystemError is returned by Register when the id is already taken.
type DuplicateSystemError struct {
	System core.SystemID
}

// Error implements the error interface.
func (e *DuplicateSystemError) Error() string {
	return fmt.Sprintf("system %q already registered", e.System)
}

// CyclicDependencyError is returned by BuildOrder when the declared access
// sets cannot be ordered.
type CyclicDependencyError struct {
	// Members of the strongly connected component, in registration order.
	Members []core.SystemID
	// Path is one concrete cycle, starting and ending at Members[0].
	Path []core.SystemID
}

// Error implements the error interface.
func (e *CyclicDependencyError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = string(id)
	}
	return fmt.Sprintf("cyclic dependency between systems: %s", strings.Join(parts, " → "))
}

// IsDuplicateSystem reports whether err is or wraps a DuplicateSystemError.
func IsDuplicateSystem(err error) bool {
	var de *DuplicateSystemError
	return errors.As(err, &de)
}

// IsCyclicDependency reports whether err is or wraps a CyclicDependencyError.
func IsCyclicDependency(err error) bool {
	var ce *CyclicDependencyError
	return errors.As(err, &ce)
}
