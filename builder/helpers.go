// Package builder offers a nested, option-based way to declare hsm graphs.
// A tree of Nodes mirrors the state hierarchy; the first child of a
// composite is its initial state unless Initial says otherwise.
package builder

import (
	"github.com/comalice/hsm" // the core package
)

// Node is one state declaration together with its children.
type Node[C any, E comparable] struct {
	name     string
	opts     []Option[C, E]
	children []*Node[C, E]
}

// Option configures the state a Node declares.
type Option[C any, E comparable] func(*hsm.StateBuilder[C, E])

// New creates a leaf state.
func New[C any, E comparable](name string, opts ...Option[C, E]) *Node[C, E] {
	return &Node[C, E]{name: name, opts: opts}
}

// Composite creates a composite state with children in order (first = initial).
func Composite[C any, E comparable](name string, children ...*Node[C, E]) *Node[C, E] {
	return &Node[C, E]{name: name, children: children}
}

// With appends options to a node, typically a composite.
func (n *Node[C, E]) With(opts ...Option[C, E]) *Node[C, E] {
	n.opts = append(n.opts, opts...)
	return n
}

// Build declares every node under roots and builds the graph.
func Build[C any, E comparable](roots ...*Node[C, E]) (*hsm.Graph[C, E], error) {
	b := hsm.NewGraphBuilder[C, E]()
	for _, r := range roots {
		r.declare(b, "")
	}
	return b.Build()
}

// MustBuild is like Build but panics on a malformed graph.
func MustBuild[C any, E comparable](roots ...*Node[C, E]) *hsm.Graph[C, E] {
	b := hsm.NewGraphBuilder[C, E]()
	for _, r := range roots {
		r.declare(b, "")
	}
	return b.MustBuild()
}

func (n *Node[C, E]) declare(b *hsm.GraphBuilder[C, E], parent string) {
	sb := b.Name(n.name)
	if parent != "" {
		sb.Parent(parent)
	}
	if len(n.children) > 0 {
		sb.Initially(hsm.InitialTransition[C](n.children[0].name))
	}
	for _, opt := range n.opts {
		opt(sb)
	}
	for _, ch := range n.children {
		ch.declare(b, n.name)
	}
}

// OnEntry adds an action to a state that executes when the state is entered.
func OnEntry[C any, E comparable](act hsm.Action[C]) Option[C, E] {
	return func(sb *hsm.StateBuilder[C, E]) { sb.OnEntry(act) }
}

// OnExit adds an action to a state that executes when the state is exited.
func OnExit[C any, E comparable](act hsm.Action[C]) Option[C, E] {
	return func(sb *hsm.StateBuilder[C, E]) { sb.OnExit(act) }
}

// Initial replaces the default first-child initial state.
func Initial[C any, E comparable](target string, act hsm.Action[C]) Option[C, E] {
	return func(sb *hsm.StateBuilder[C, E]) {
		sb.Initially(hsm.InitialTransition[C](target).Do(act))
	}
}

// On adds an outbound transition to a target state. An empty target
// makes the transition internal.
func On[C any, E comparable](event E, target string, opts ...TransOption[C]) Option[C, E] {
	return func(sb *hsm.StateBuilder[C, E]) {
		var t transition[C]
		// optional guard, action and/or else branch
		for _, opt := range opts {
			opt(&t)
		}
		then := hsm.EventTransition[C](event).Goto(target).Do(t.action)
		if t.guard == nil {
			sb.Always(then)
			return
		}
		c := hsm.If[C, E](t.guard).Then(then)
		if t.orElse != nil {
			c.Else(hsm.EventTransition[C](event).Goto(t.orElse.target).Do(t.orElse.action))
		}
		sb.Conditionally(c)
	}
}

// Internal adds a transition that only runs act.
func Internal[C any, E comparable](event E, act hsm.Action[C]) Option[C, E] {
	return On[C, E](event, "", WithAction(act))
}

type transition[C any] struct {
	guard  hsm.Guard[C]
	action hsm.Action[C]
	orElse *branch[C]
}

type branch[C any] struct {
	target string
	action hsm.Action[C]
}

// TransOption configures a transition added with On.
type TransOption[C any] func(*transition[C])

// WithGuard makes the transition conditional on g.
func WithGuard[C any](g hsm.Guard[C]) TransOption[C] {
	return func(t *transition[C]) { t.guard = g }
}

// WithAction sets the transition action.
func WithAction[C any](act hsm.Action[C]) TransOption[C] {
	return func(t *transition[C]) { t.action = act }
}

// WithElse sets the branch taken when the guard does not hold.
// It has no effect without WithGuard.
func WithElse[C any](target string, act hsm.Action[C]) TransOption[C] {
	return func(t *transition[C]) { t.orElse = &branch[C]{target: target, action: act} }
}
