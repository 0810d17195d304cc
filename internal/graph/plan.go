package graph

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/organization-ai-projects/simcore/internal/canon"
	"github.com/organization-ai-projects/simcore/internal/core"
)

// ExecutionPlan is the immutable result of BuildOrder.
type ExecutionPlan struct {
	// Systems in registration order.
	Systems []Node
	// Order is a total order consistent with every dependency: the
	// concatenation of Waves.
	Order []core.SystemID
	// Waves partition Order into groups that are safe to run concurrently.
	// Waves execute strictly in sequence.
	Waves [][]core.SystemID

	nodes       map[core.SystemID]int
	waveOf      map[core.SystemID]int
	deps        map[core.SystemID][]core.SystemID
	fingerprint string
}

func newPlan(nodes []Node, waves [][]int, succ [][]int) (*ExecutionPlan, error) {
	p := &ExecutionPlan{
		Systems: make([]Node, len(nodes)),
		nodes:   make(map[core.SystemID]int, len(nodes)),
		waveOf:  make(map[core.SystemID]int, len(nodes)),
		deps:    make(map[core.SystemID][]core.SystemID),
	}
	copy(p.Systems, nodes)
	for i, n := range nodes {
		p.nodes[n.ID] = i
	}

	for w, wave := range waves {
		ids := make([]core.SystemID, len(wave))
		for k, i := range wave {
			ids[k] = nodes[i].ID
			p.waveOf[nodes[i].ID] = w
		}
		p.Waves = append(p.Waves, ids)
		p.Order = append(p.Order, ids...)
	}

	// Predecessors in registration order: succ lists are ascending and the
	// outer loop walks sources ascending.
	for from, targets := range succ {
		for _, to := range targets {
			p.deps[nodes[to].ID] = append(p.deps[nodes[to].ID], nodes[from].ID)
		}
	}

	sum, err := canon.Hash(canon.DomainPlan, p.canonical())
	if err != nil {
		return nil, fmt.Errorf("fingerprint plan: %w", err)
	}
	p.fingerprint = hex.EncodeToString(sum[:])
	return p, nil
}

// Node returns the registration for id.
func (p *ExecutionPlan) Node(id core.SystemID) (Node, bool) {
	i, ok := p.nodes[id]
	if !ok {
		return Node{}, false
	}
	return p.Systems[i], true
}

// WaveOf returns the zero-based wave index of id.
func (p *ExecutionPlan) WaveOf(id core.SystemID) (int, bool) {
	w, ok := p.waveOf[id]
	return w, ok
}

// Position returns the index of id in Order, or -1.
func (p *ExecutionPlan) Position(id core.SystemID) int {
	for i, o := range p.Order {
		if o == id {
			return i
		}
	}
	return -1
}

// Dependencies returns the systems that must run before id, in
// registration order.
func (p *ExecutionPlan) Dependencies(id core.SystemID) []core.SystemID {
	return append([]core.SystemID(nil), p.deps[id]...)
}

// Fingerprint is the hex SHA-256 of the canonical plan (registrations and
// waves). Runs recorded under one fingerprint only replay under the same one.
func (p *ExecutionPlan) Fingerprint() string {
	return p.fingerprint
}

// String renders one line per wave:
//
//	wave 0: weather
//	wave 1: immigration, harvest
func (p *ExecutionPlan) String() string {
	var b strings.Builder
	for w, wave := range p.Waves {
		parts := make([]string, len(wave))
		for i, id := range wave {
			parts[i] = string(id)
		}
		fmt.Fprintf(&b, "wave %d: %s\n", w, strings.Join(parts, ", "))
	}
	return b.String()
}

func (p *ExecutionPlan) canonical() canon.Value {
	systems := make(canon.Array, len(p.Systems))
	for i, n := range p.Systems {
		systems[i] = canon.Obj(
			canon.P("id", canon.String(n.ID)),
			canon.P("reads", tagArray(n.Reads)),
			canon.P("writes", tagArray(n.Writes)),
		)
	}
	waves := make(canon.Array, len(p.Waves))
	for i, wave := range p.Waves {
		ids := make(canon.Array, len(wave))
		for k, id := range wave {
			ids[k] = canon.String(id)
		}
		waves[i] = ids
	}
	return canon.Obj(
		canon.P("systems", systems),
		canon.P("waves", waves),
	)
}

func tagArray(tags []core.ResourceTag) canon.Array {
	out := make(canon.Array, len(tags))
	for i, t := range tags {
		out[i] = canon.String(t)
	}
	return out
}
