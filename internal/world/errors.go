package world

import (
	"errors"
	"fmt"

	"github.com/organization-ai-projects/simcore/internal/core"
)

// ErrSealed is returned by Register after the world was handed to a scheduler.
var ErrSealed = errors.New("world is sealed: resources cannot be added while running")

// Access names the kind of access a system requested.
type Access string

const (
	AccessRead  Access = "read"
	AccessWrite Access = "write"
)

// AccessError is returned when a system touches a tag outside its declared
// sets. It always indicates a registration bug.
type AccessError struct {
	System core.SystemID
	Tag    core.ResourceTag
	Want   Access
}

// Error implements the error interface.
func (e *AccessError) Error() string {
	return fmt.Sprintf("system %q did not declare %s access to %q", e.System, e.Want, e.Tag)
}

// MissingResourceError is returned when a tag has no registered resource.
type MissingResourceError struct {
	Tag core.ResourceTag
}

// Error implements the error interface.
func (e *MissingResourceError) Error() string {
	return fmt.Sprintf("no resource registered for tag %q", e.Tag)
}

// IsAccessError reports whether err is or wraps an AccessError.
func IsAccessError(err error) bool {
	var ae *AccessError
	return errors.As(err, &ae)
}

// IsMissingResource reports whether err is or wraps a MissingResourceError.
func IsMissingResource(err error) bool {
	var me *MissingResourceError
	return errors.As(err, &me)
}
