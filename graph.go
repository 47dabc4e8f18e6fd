package hsm

import (
	"errors"
	"fmt"
	"slices"
)

// StateID is a stable handle to a state inside a Graph arena.
type StateID int

// NoState is the handle used where no state applies: the parent of a root,
// the target of an internal transition, or the current state of an engine
// that has not been initialized.
const NoState StateID = -1

// Action is a side-effecting callback run on entry, exit or transition.
type Action[C any] func(c C)

// Guard is a pure predicate selecting between conditional transitions.
type Guard[C any] func(c C) bool

// Hook is a cross-cutting callback invoked for every state entered or exited.
type Hook[C any] func(c C, state StateID)

type transition[C any, E comparable] struct {
	event  E
	target StateID // NoState --> internal transition
	action Action[C]
}

type conditional[C any, E comparable] struct {
	guard  Guard[C]
	then   transition[C, E]
	orElse *transition[C, E]
}

type node[C any, E comparable] struct {
	name         string
	parent       StateID
	entry        Action[C]
	exit         Action[C]
	initial      StateID // NoState --> no default transition
	initialDo    Action[C]
	transitions  []transition[C, E]
	conditionals []conditional[C, E]
	children     []StateID
	chain        []StateID // root..self
}

// Graph is the immutable arena of states produced by a GraphBuilder.
// A Graph is safe for concurrent reads and may back any number of engines.
type Graph[C any, E comparable] struct {
	nodes    []node[C, E]
	nameToID map[string]StateID
}

// Len returns the number of states in the graph.
func (g *Graph[C, E]) Len() int {
	return len(g.nodes)
}

// States returns every state handle in declaration order.
func (g *Graph[C, E]) States() []StateID {
	ids := make([]StateID, len(g.nodes))
	for i := range g.nodes {
		ids[i] = StateID(i)
	}
	return ids
}

// Valid reports whether id addresses a state of this graph.
func (g *Graph[C, E]) Valid(id StateID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

// Name returns the identity of a state, or "<none>" for NoState.
func (g *Graph[C, E]) Name(id StateID) string {
	if !g.Valid(id) {
		return "<none>"
	}
	return g.nodes[id].name
}

// Lookup resolves a state by name.
func (g *Graph[C, E]) Lookup(name string) (StateID, bool) {
	id, ok := g.nameToID[name]
	return id, ok
}

// MustLookup resolves a state by name and panics if it does not exist.
// Intended for package-level handles of statically defined graphs.
func (g *Graph[C, E]) MustLookup(name string) StateID {
	id, ok := g.nameToID[name]
	if !ok {
		panic(fmt.Sprintf("hsm: unknown state %q", name))
	}
	return id
}

// Parent returns the parent of a state, or NoState for a root.
func (g *Graph[C, E]) Parent(id StateID) StateID {
	if !g.Valid(id) {
		return NoState
	}
	return g.nodes[id].parent
}

// Children returns the direct children of a state in declaration order.
func (g *Graph[C, E]) Children(id StateID) []StateID {
	if !g.Valid(id) {
		return nil
	}
	return slices.Clone(g.nodes[id].children)
}

// Depth returns the number of ancestors of a state. Roots have depth 0.
func (g *Graph[C, E]) Depth(id StateID) int {
	if !g.Valid(id) {
		return -1
	}
	return len(g.nodes[id].chain) - 1
}

// Ancestors returns the chain from the root of id's tree down to id itself.
func (g *Graph[C, E]) Ancestors(id StateID) []StateID {
	if !g.Valid(id) {
		return nil
	}
	return slices.Clone(g.nodes[id].chain)
}

// IsAncestor reports whether a is d or one of d's ancestors.
func (g *Graph[C, E]) IsAncestor(a, d StateID) bool {
	if !g.Valid(a) || !g.Valid(d) {
		return false
	}
	chain := g.nodes[d].chain
	depth := len(g.nodes[a].chain) - 1
	return depth < len(chain) && chain[depth] == a
}

// LCA returns the deepest state common to the ancestor chains of a and b,
// or NoState when they live in different trees.
func (g *Graph[C, E]) LCA(a, b StateID) StateID {
	if !g.Valid(a) || !g.Valid(b) {
		return NoState
	}
	ca, cb := g.nodes[a].chain, g.nodes[b].chain
	lca := NoState
	for i := 0; i < len(ca) && i < len(cb) && ca[i] == cb[i]; i++ {
		lca = ca[i]
	}
	return lca
}

// InitialTarget returns the target of a state's default transition.
func (g *Graph[C, E]) InitialTarget(id StateID) (StateID, bool) {
	if !g.Valid(id) || g.nodes[id].initial == NoState {
		return NoState, false
	}
	return g.nodes[id].initial, true
}

// precomputeChains fills the root..self chain of every node.
// Parent edges must already be known to be acyclic.
func (g *Graph[C, E]) precomputeChains() {
	for i := range g.nodes {
		var chain []StateID
		for s := StateID(i); s != NoState; s = g.nodes[s].parent {
			chain = append(chain, s)
		}
		slices.Reverse(chain)
		g.nodes[i].chain = chain
		if p := g.nodes[i].parent; p != NoState {
			g.nodes[p].children = append(g.nodes[p].children, StateID(i))
		}
	}
}

// subtree reports every state in the subtree rooted at top, top included.
func (g *Graph[C, E]) subtree(top StateID) map[StateID]bool {
	in := make(map[StateID]bool)
	for i := range g.nodes {
		if g.IsAncestor(top, StateID(i)) {
			in[StateID(i)] = true
		}
	}
	return in
}

// checkScope verifies that every transition declared inside top's subtree
// targets a state inside that subtree.
func (g *Graph[C, E]) checkScope(top StateID) error {
	in := g.subtree(top)
	var errs []error
	check := func(from StateID, t transition[C, E]) {
		if t.target != NoState && !in[t.target] {
			errs = append(errs, fmt.Errorf("state %q -> %q: %w", g.Name(from), g.Name(t.target), ErrTargetOutsideTop))
		}
	}
	for i := range g.nodes {
		id := StateID(i)
		if !in[id] {
			continue
		}
		n := &g.nodes[id]
		for _, t := range n.transitions {
			check(id, t)
		}
		for _, c := range n.conditionals {
			check(id, c.then)
			if c.orElse != nil {
				check(id, *c.orElse)
			}
		}
	}
	return errors.Join(errs...)
}
