package hsm

import (
	"errors"
	"fmt"
)

// GraphBuilder assembles an immutable Graph from name-addressed state
// declarations. States may be referenced before they are declared.
type GraphBuilder[C any, E comparable] struct {
	nextID   StateID
	nameToID map[string]StateID
	idToName map[StateID]string
	states   map[StateID]*StateBuilder[C, E]
	parents  map[StateID]string
	errs     []error
}

// StateBuilder provides fluent methods for configuring one state.
type StateBuilder[C any, E comparable] struct {
	b            *GraphBuilder[C, E]
	id           StateID
	name         string
	entry        Action[C]
	exit         Action[C]
	initial      *InitialTransitionBuilder[C]
	transitions  []*EventTransitionBuilder[C, E]
	conditionals []*ConditionalBuilder[C, E]
}

// InitialTransitionBuilder describes a state's default transition.
type InitialTransitionBuilder[C any] struct {
	target string
	action Action[C]
}

// EventTransitionBuilder describes a transition triggered by an event.
// Omitting Goto yields an internal transition.
type EventTransitionBuilder[C any, E comparable] struct {
	event  E
	target string
	action Action[C]
}

// ConditionalBuilder pairs a guard with the transition taken when it holds
// and, optionally, the one taken when it does not.
type ConditionalBuilder[C any, E comparable] struct {
	guard  Guard[C]
	then   *EventTransitionBuilder[C, E]
	orElse *EventTransitionBuilder[C, E]
}

// NewGraphBuilder creates an empty builder.
func NewGraphBuilder[C any, E comparable]() *GraphBuilder[C, E] {
	return &GraphBuilder[C, E]{
		nameToID: make(map[string]StateID),
		idToName: make(map[StateID]string),
		states:   make(map[StateID]*StateBuilder[C, E]),
		parents:  make(map[StateID]string),
	}
}

// Name begins the declaration of a new state.
func (b *GraphBuilder[C, E]) Name(name string) *StateBuilder[C, E] {
	id := b.assignID(name)
	if _, exists := b.states[id]; exists {
		b.errs = append(b.errs, fmt.Errorf("state %q: %w", name, ErrDuplicateState))
	}
	sb := &StateBuilder[C, E]{b: b, id: id, name: name}
	b.states[id] = sb
	return sb
}

// ID returns the handle a name has or will have in the built graph.
func (b *GraphBuilder[C, E]) ID(name string) StateID {
	return b.assignID(name)
}

// assignID returns the existing ID for a name, or creates the next sequential one.
func (b *GraphBuilder[C, E]) assignID(name string) StateID {
	if id, exists := b.nameToID[name]; exists {
		return id
	}
	id := b.nextID
	b.nextID++
	b.nameToID[name] = id
	b.idToName[id] = name
	return id
}

// Parent sets the parent edge.
func (sb *StateBuilder[C, E]) Parent(name string) *StateBuilder[C, E] {
	sb.b.assignID(name)
	sb.b.parents[sb.id] = name
	return sb
}

// OnEntry sets the entry action.
func (sb *StateBuilder[C, E]) OnEntry(a Action[C]) *StateBuilder[C, E] {
	sb.entry = a
	return sb
}

// OnExit sets the exit action.
func (sb *StateBuilder[C, E]) OnExit(a Action[C]) *StateBuilder[C, E] {
	sb.exit = a
	return sb
}

// Initially sets the default sub-state entered after this state.
func (sb *StateBuilder[C, E]) Initially(t *InitialTransitionBuilder[C]) *StateBuilder[C, E] {
	if t != nil && t.target != "" {
		sb.b.assignID(t.target)
	}
	sb.initial = t
	return sb
}

// Always appends an event transition. The first matching transition wins.
func (sb *StateBuilder[C, E]) Always(t *EventTransitionBuilder[C, E]) *StateBuilder[C, E] {
	if t == nil {
		return sb
	}
	if t.target != "" {
		sb.b.assignID(t.target)
	}
	sb.transitions = append(sb.transitions, t)
	return sb
}

// Conditionally appends a guarded transition pair. Conditionals are
// examined before unconditional transitions of the same state.
func (sb *StateBuilder[C, E]) Conditionally(c *ConditionalBuilder[C, E]) *StateBuilder[C, E] {
	if c == nil {
		return sb
	}
	for _, t := range []*EventTransitionBuilder[C, E]{c.then, c.orElse} {
		if t != nil && t.target != "" {
			sb.b.assignID(t.target)
		}
	}
	sb.conditionals = append(sb.conditionals, c)
	return sb
}

// InitialTransition starts a default transition to target.
func InitialTransition[C any](target string) *InitialTransitionBuilder[C] {
	return &InitialTransitionBuilder[C]{target: target}
}

// Do sets the action run between the exits and the entries.
func (t *InitialTransitionBuilder[C]) Do(a Action[C]) *InitialTransitionBuilder[C] {
	t.action = a
	return t
}

// EventTransition starts a transition triggered by event.
func EventTransition[C any, E comparable](event E) *EventTransitionBuilder[C, E] {
	return &EventTransitionBuilder[C, E]{event: event}
}

// Goto sets the target state.
func (t *EventTransitionBuilder[C, E]) Goto(target string) *EventTransitionBuilder[C, E] {
	t.target = target
	return t
}

// Do sets the transition action.
func (t *EventTransitionBuilder[C, E]) Do(a Action[C]) *EventTransitionBuilder[C, E] {
	t.action = a
	return t
}

// If starts a conditional transition guarded by g.
func If[C any, E comparable](g Guard[C]) *ConditionalBuilder[C, E] {
	return &ConditionalBuilder[C, E]{guard: g}
}

// Then sets the transition taken when the guard holds.
func (c *ConditionalBuilder[C, E]) Then(t *EventTransitionBuilder[C, E]) *ConditionalBuilder[C, E] {
	c.then = t
	return c
}

// Else sets the transition taken when the guard does not hold.
func (c *ConditionalBuilder[C, E]) Else(t *EventTransitionBuilder[C, E]) *ConditionalBuilder[C, E] {
	c.orElse = t
	return c
}

// Build validates the declarations and produces the immutable graph.
// Every problem found is reported; the returned error wraps the
// matching sentinel for each.
func (b *GraphBuilder[C, E]) Build() (*Graph[C, E], error) {
	errs := append([]error(nil), b.errs...)

	g := &Graph[C, E]{
		nodes:    make([]node[C, E], b.nextID),
		nameToID: make(map[string]StateID, len(b.nameToID)),
	}
	for name, id := range b.nameToID {
		g.nameToID[name] = id
	}

	for id := StateID(0); id < b.nextID; id++ {
		sb, declared := b.states[id]
		if !declared {
			errs = append(errs, fmt.Errorf("state %q: %w", b.idToName[id], ErrUnknownState))
			g.nodes[id] = node[C, E]{name: b.idToName[id], parent: NoState, initial: NoState}
			continue
		}
		g.nodes[id] = sb.compile()
		if parent, ok := b.parents[id]; ok {
			g.nodes[id].parent = b.nameToID[parent]
		}
		if sb.initial != nil && sb.initial.target == "" {
			errs = append(errs, fmt.Errorf("state %q: %w", sb.name, ErrEmptyInitial))
		}
		for _, c := range sb.conditionals {
			if c.guard == nil || c.then == nil {
				errs = append(errs, fmt.Errorf("state %q: conditional needs a guard and a Then transition", sb.name))
			}
		}
	}

	if err := g.checkParentCycles(); err != nil {
		// Chains cannot be computed over a cycle.
		return nil, errors.Join(append(errs, err)...)
	}
	g.precomputeChains()

	for id := range g.nodes {
		n := &g.nodes[id]
		if n.initial != NoState && (n.initial == StateID(id) || !g.IsAncestor(StateID(id), n.initial)) {
			errs = append(errs, fmt.Errorf("state %q: initial target %q: %w", n.name, g.Name(n.initial), ErrInitialNotDescendant))
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return g, nil
}

// MustBuild is like Build but panics on a malformed graph.
func (b *GraphBuilder[C, E]) MustBuild() *Graph[C, E] {
	g, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("hsm: malformed graph: %v", err))
	}
	return g
}

func (sb *StateBuilder[C, E]) compile() node[C, E] {
	ids := sb.b.nameToID
	n := node[C, E]{
		name:    sb.name,
		parent:  NoState,
		entry:   sb.entry,
		exit:    sb.exit,
		initial: NoState,
	}
	if sb.initial != nil && sb.initial.target != "" {
		n.initial = ids[sb.initial.target]
		n.initialDo = sb.initial.action
	}
	for _, t := range sb.transitions {
		n.transitions = append(n.transitions, compileTransition(t, ids))
	}
	for _, c := range sb.conditionals {
		if c.guard == nil || c.then == nil {
			continue
		}
		cc := conditional[C, E]{guard: c.guard, then: compileTransition(c.then, ids)}
		if c.orElse != nil {
			t := compileTransition(c.orElse, ids)
			cc.orElse = &t
		}
		n.conditionals = append(n.conditionals, cc)
	}
	return n
}

func compileTransition[C any, E comparable](t *EventTransitionBuilder[C, E], ids map[string]StateID) transition[C, E] {
	tr := transition[C, E]{event: t.event, target: NoState, action: t.action}
	if t.target != "" {
		tr.target = ids[t.target]
	}
	return tr
}

// checkParentCycles walks every parent chain; a chain longer than the
// number of states must revisit one.
func (g *Graph[C, E]) checkParentCycles() error {
	var errs []error
	for id := range g.nodes {
		steps := 0
		for s := g.nodes[id].parent; s != NoState; s = g.nodes[s].parent {
			steps++
			if steps > len(g.nodes) {
				errs = append(errs, fmt.Errorf("state %q: %w", g.nodes[id].name, ErrParentCycle))
				break
			}
		}
	}
	return errors.Join(errs...)
}
