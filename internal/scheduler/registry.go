package scheduler

import (
	"fmt"
	"maps"

	"github.com/organization-ai-projects/simcore/internal/core"
	"github.com/organization-ai-projects/simcore/internal/graph"
)

// ExecuteFunc is a system body. It must be a pure function of the world
// resources it declared, its randomness stream and its inputs: no wall-clock
// time, no I/O, no global state.
type ExecuteFunc func(tc *TickContext) error

// Registry collects systems before a plan is built.
type Registry struct {
	graph   *graph.Graph
	systems map[core.SystemID]ExecuteFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		graph:   graph.New(),
		systems: make(map[core.SystemID]ExecuteFunc),
	}
}

// Register adds a system with its declared access sets.
func (r *Registry) Register(id core.SystemID, reads, writes []core.ResourceTag, exec ExecuteFunc) error {
	if exec == nil {
		return fmt.Errorf("system %q: execute function must not be nil", id)
	}
	if err := r.graph.Register(id, reads, writes); err != nil {
		return err
	}
	r.systems[id] = exec
	return nil
}

// Build computes the execution plan. Cycles surface here, before any tick.
func (r *Registry) Build() (*Plan, error) {
	exec, err := r.graph.BuildOrder()
	if err != nil {
		return nil, fmt.Errorf("build plan: %w", err)
	}
	return &Plan{exec: exec, systems: maps.Clone(r.systems)}, nil
}

// Plan is an execution plan bound to system bodies.
type Plan struct {
	exec    *graph.ExecutionPlan
	systems map[core.SystemID]ExecuteFunc
}

// Execution returns the underlying ordering.
func (p *Plan) Execution() *graph.ExecutionPlan {
	return p.exec
}

// Fingerprint identifies the registrations the plan was built from.
func (p *Plan) Fingerprint() string {
	return p.exec.Fingerprint()
}

// Has reports whether id is part of the plan.
func (p *Plan) Has(id core.SystemID) bool {
	_, ok := p.systems[id]
	return ok
}
