package world

import (
	"fmt"

	"github.com/organization-ai-projects/simcore/internal/core"
	"github.com/organization-ai-projects/simcore/internal/graph"
)

// View exposes only the resources a system declared.
type View struct {
	world *World
	node  graph.Node
}

// System returns the id the view is scoped to.
func (v *View) System() core.SystemID {
	return v.node.ID
}

// Read returns a resource the system declared for reading or writing.
// Callers must not mutate a resource obtained through Read.
func (v *View) Read(tag core.ResourceTag) (any, error) {
	if !v.node.CanRead(tag) {
		return nil, &AccessError{System: v.node.ID, Tag: tag, Want: AccessRead}
	}
	return v.world.Get(tag)
}

// Write returns a resource the system declared for writing.
func (v *View) Write(tag core.ResourceTag) (any, error) {
	if !v.node.CanWrite(tag) {
		return nil, &AccessError{System: v.node.ID, Tag: tag, Want: AccessWrite}
	}
	return v.world.Get(tag)
}

// ReadAs is Read with a type assertion.
func ReadAs[T any](v *View, tag core.ResourceTag) (T, error) {
	r, err := v.Read(tag)
	if err != nil {
		var zero T
		return zero, err
	}
	return assertAs[T](tag, r)
}

// WriteAs is Write with a type assertion.
func WriteAs[T any](v *View, tag core.ResourceTag) (T, error) {
	r, err := v.Write(tag)
	if err != nil {
		var zero T
		return zero, err
	}
	return assertAs[T](tag, r)
}

func assertAs[T any](tag core.ResourceTag, r any) (T, error) {
	typed, ok := r.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("resource %q has type %T, want %T", tag, r, zero)
	}
	return typed, nil
}
