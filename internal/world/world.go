package world

import (
	"fmt"
	"slices"

	"github.com/organization-ai-projects/simcore/internal/canon"
	"github.com/organization-ai-projects/simcore/internal/core"
	"github.com/organization-ai-projects/simcore/internal/graph"
)

// Snapshotter is implemented by resources that are part of the state hash.
// Snapshot must be a pure function of the resource's logical state.
type Snapshotter interface {
	Snapshot() (canon.Value, error)
}

// World is the resource container for one run.
type World struct {
	resources map[core.ResourceTag]any
	unhashed  map[core.ResourceTag]bool
	sealed    bool
}

// New creates an empty world.
func New() *World {
	return &World{
		resources: make(map[core.ResourceTag]any),
		unhashed:  make(map[core.ResourceTag]bool),
	}
}

// Register adds a resource under tag. The resource must implement
// Snapshotter; state that is deliberately outside the hash goes through
// RegisterUnhashed.
func (w *World) Register(tag core.ResourceTag, resource any) error {
	if _, ok := resource.(Snapshotter); !ok && resource != nil {
		return fmt.Errorf("resource %q does not implement Snapshotter; use RegisterUnhashed to keep it out of the state hash", tag)
	}
	return w.add(tag, resource)
}

// RegisterUnhashed adds a resource that never contributes to the state hash,
// such as a cache derived from hashed state. Replay cannot detect divergence
// in it.
func (w *World) RegisterUnhashed(tag core.ResourceTag, resource any) error {
	if err := w.add(tag, resource); err != nil {
		return err
	}
	w.unhashed[tag] = true
	return nil
}

func (w *World) add(tag core.ResourceTag, resource any) error {
	if w.sealed {
		return ErrSealed
	}
	if tag == "" {
		return fmt.Errorf("resource tag must not be empty")
	}
	if resource == nil {
		return fmt.Errorf("resource %q must not be nil", tag)
	}
	if _, exists := w.resources[tag]; exists {
		return fmt.Errorf("resource %q already registered", tag)
	}
	w.resources[tag] = resource
	return nil
}

// Unhashed returns the tags registered with RegisterUnhashed, sorted.
func (w *World) Unhashed() []core.ResourceTag {
	tags := make([]core.ResourceTag, 0, len(w.unhashed))
	for tag := range w.unhashed {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// Seal freezes the resource set. Called by the scheduler on Start.
func (w *World) Seal() {
	w.sealed = true
}

// Sealed reports whether Seal was called.
func (w *World) Sealed() bool {
	return w.sealed
}

// Has reports whether tag is registered.
func (w *World) Has(tag core.ResourceTag) bool {
	_, ok := w.resources[tag]
	return ok
}

// Tags returns every registered tag, sorted.
func (w *World) Tags() []core.ResourceTag {
	tags := make([]core.ResourceTag, 0, len(w.resources))
	for tag := range w.resources {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// Require checks that every node's declared tags are registered. The first
// missing tag in plan order is reported.
func (w *World) Require(nodes ...graph.Node) error {
	for _, n := range nodes {
		for _, tag := range slices.Concat(n.Reads, n.Writes) {
			if !w.Has(tag) {
				return fmt.Errorf("system %q: %w", n.ID, &MissingResourceError{Tag: tag})
			}
		}
	}
	return nil
}

// Get returns the resource without access checks. For use outside ticks
// (setup, inspection, tests).
func (w *World) Get(tag core.ResourceTag) (any, error) {
	r, ok := w.resources[tag]
	if !ok {
		return nil, &MissingResourceError{Tag: tag}
	}
	return r, nil
}

// Snapshot returns a canonical object keyed by tag, covering every resource
// except the unhashed ones.
func (w *World) Snapshot() (canon.Value, error) {
	out := make(canon.Object)
	for _, tag := range w.Tags() {
		if w.unhashed[tag] {
			continue
		}
		s := w.resources[tag].(Snapshotter)
		v, err := s.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("snapshot %q: %w", tag, err)
		}
		out[string(tag)] = v
	}
	return out, nil
}

// View returns an access-checked view for the system described by node.
func (w *World) View(node graph.Node) *View {
	return &View{world: w, node: node}
}
