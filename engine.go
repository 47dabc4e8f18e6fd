package hsm

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Engine drives one instance of a state machine over a shared Graph.
//
// An Engine is not safe for concurrent use. Callers that dispatch from
// several goroutines must serialize calls, for example through
// dispatch.Queue.
type Engine[C any, E comparable] struct {
	graph  *Graph[C, E]
	top    StateID
	ctx    C
	format func(E) string

	current     StateID
	dispatching bool

	entryHook Hook[C]
	exitHook  Hook[C]

	sink       Sink
	name       string
	instanceID string
	observers  []Observer
}

// New creates an engine bound to the subtree rooted at top. ctx is handed
// to every callback. format renders events for diagnostics; nil means
// fmt.Sprint. The engine has no current state until Initialize is called.
func New[C any, E comparable](g *Graph[C, E], top StateID, ctx C, format func(E) string, opts ...Option) (*Engine[C, E], error) {
	if g == nil {
		return nil, errors.New("hsm: nil graph")
	}
	if !g.Valid(top) {
		return nil, fmt.Errorf("top state %d: %w", top, ErrUnknownState)
	}
	if err := g.checkScope(top); err != nil {
		return nil, err
	}

	o := settings{sink: NopSink{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = g.Name(top)
	}
	if o.instanceID == "" {
		o.instanceID = uuid.NewString()
	}
	if format == nil {
		format = func(e E) string { return fmt.Sprint(e) }
	}

	return &Engine[C, E]{
		graph:      g,
		top:        top,
		ctx:        ctx,
		format:     format,
		current:    NoState,
		sink:       o.sink,
		name:       o.name,
		instanceID: o.instanceID,
		observers:  o.observers,
	}, nil
}

// RegisterGlobalEntryExit installs hooks run for every state entered or
// exited, before that state's own entry or exit action. Either may be nil.
func (m *Engine[C, E]) RegisterGlobalEntryExit(entry, exit Hook[C]) {
	m.entryHook = entry
	m.exitHook = exit
}

// Initialize positions the engine on the top state and follows its
// default transitions down to a leaf. The top state itself is not
// entered. It must be called exactly once, before the first HandleEvent.
func (m *Engine[C, E]) Initialize() error {
	if m.current != NoState {
		m.logf(SeverityError, "initialize called again in state %s", m.graph.Name(m.current))
		return ErrAlreadyInitialized
	}

	m.dispatching = true
	defer func() { m.dispatching = false }()

	m.current = m.top
	m.cascade(1)
	return nil
}

// HandleEvent dispatches e against the current state and its ancestors.
// It reports whether a transition was found and executed; internal
// transitions count as handled.
func (m *Engine[C, E]) HandleEvent(e E) bool {
	text := m.format(e)

	if m.current == NoState {
		m.logf(SeverityError, "event %q dropped: engine not initialized", text)
		m.notifyEvent(text, OutcomeRejected)
		return false
	}
	if m.dispatching {
		m.logf(SeverityError, "event %q rejected: dispatch already running in state %s", text, m.graph.Name(m.current))
		m.notifyEvent(text, OutcomeRejected)
		return false
	}

	source, t, ok := m.find(e)
	if !ok {
		m.logf(SeverityWarning, "event %q not handled in state %s", text, m.graph.Name(m.current))
		m.notifyEvent(text, OutcomeUnhandled)
		return false
	}

	arrival := m.graph.Name(m.current)
	m.logf(SeverityInfo, "event %q received in state %s, handled by %s", text, arrival, m.graph.Name(source))

	m.dispatching = true
	defer func() { m.dispatching = false }()

	kind := KindExternal
	if t.target == NoState {
		kind = KindInternal
	}
	m.cascade(m.execute(text, kind, t.target, t.action))

	m.emitEvent(EventRecord{
		Machine:  m.name,
		Instance: m.instanceID,
		Event:    text,
		State:    arrival,
		Outcome:  OutcomeHandled,
	})
	return true
}

// CurrentState returns the current state, or NoState before Initialize.
// It is a leaf except after a transition targeting an ancestor, or when
// the top state has no default transition.
func (m *Engine[C, E]) CurrentState() StateID {
	return m.current
}

// CurrentStateName returns the name of the current state.
func (m *Engine[C, E]) CurrentStateName() string {
	return m.graph.Name(m.current)
}

// IsInState reports whether s is the current state or one of its ancestors.
func (m *Engine[C, E]) IsInState(s StateID) bool {
	if m.current == NoState {
		return false
	}
	return m.graph.IsAncestor(s, m.current)
}

// ActiveStates returns the names of the active configuration, top first.
func (m *Engine[C, E]) ActiveStates() []string {
	if m.current == NoState {
		return nil
	}
	var names []string
	for _, s := range m.graph.nodes[m.current].chain {
		if m.graph.IsAncestor(m.top, s) {
			names = append(names, m.graph.Name(s))
		}
	}
	return names
}

// Initialized reports whether Initialize has run.
func (m *Engine[C, E]) Initialized() bool { return m.current != NoState }

// Graph returns the shared graph the engine runs on.
func (m *Engine[C, E]) Graph() *Graph[C, E] { return m.graph }

// Top returns the state the engine was bound to.
func (m *Engine[C, E]) Top() StateID { return m.top }

// Context returns the context value handed to callbacks.
func (m *Engine[C, E]) Context() C { return m.ctx }

// Name returns the component tag used in diagnostics.
func (m *Engine[C, E]) Name() string { return m.name }

// InstanceID returns the identifier distinguishing this engine's records.
func (m *Engine[C, E]) InstanceID() string { return m.instanceID }

// Describe returns a description of the engine's graph using the
// engine's event formatter.
func (m *Engine[C, E]) Describe() Description {
	d := m.graph.Describe(m.format)
	d.Name = m.name
	d.Top = m.graph.Name(m.top)
	return d
}

//
// Helper Functions (internal API)
//

// find searches the current state, then each ancestor up to the top, for
// the first transition matching e. Conditionals of a state are examined
// before its unconditional transitions.
func (m *Engine[C, E]) find(e E) (StateID, transition[C, E], bool) {
	for s := m.current; s != NoState; s = m.graph.nodes[s].parent {
		n := &m.graph.nodes[s]
		for i := range n.conditionals {
			if t, ok := n.conditionals[i].pick(m.ctx, e); ok {
				return s, t, true
			}
		}
		for _, t := range n.transitions {
			if t.event == e {
				return s, t, true
			}
		}
		if s == m.top {
			break
		}
	}
	return NoState, transition[C, E]{}, false
}

func (c *conditional[C, E]) pick(ctx C, e E) (transition[C, E], bool) {
	elseMatches := c.orElse != nil && c.orElse.event == e
	if c.then.event != e && !elseMatches {
		return transition[C, E]{}, false
	}
	if c.guard(ctx) {
		if c.then.event == e {
			return c.then, true
		}
		return transition[C, E]{}, false
	}
	if elseMatches {
		return *c.orElse, true
	}
	return transition[C, E]{}, false
}

// execute runs one transition from the current state: exits up to the
// least common ancestor, the action, then entries down to the target.
// A target that is the current state or one of its ancestors is its own
// LCA, so only the states below it are exited and nothing is entered.
// It returns the number of states entered.
func (m *Engine[C, E]) execute(event string, kind TransitionKind, target StateID, action Action[C]) int {
	g := m.graph
	from := m.current
	if target == NoState {
		target = from
	}

	lca := g.LCA(from, target)

	m.logf(SeverityInfo, "transition %s -> %s", g.Name(from), g.Name(target))
	rec := TransitionRecord{
		Event:  event,
		Kind:   kind,
		Source: g.Name(from),
		Target: g.Name(target),
	}

	for m.current != lca {
		rec.Exited = append(rec.Exited, g.Name(m.current))
		m.exit(m.current)
		m.current = g.nodes[m.current].parent
	}

	if action != nil {
		action(m.ctx)
	}

	chain := g.nodes[target].chain
	start := 0
	if lca != NoState {
		start = len(g.nodes[lca].chain)
	}
	for _, s := range chain[start:] {
		rec.Entered = append(rec.Entered, g.Name(s))
		m.enter(s)
	}

	m.notifyTransition(rec)
	return len(chain) - start
}

// cascade follows default transitions while the previous step entered
// at least one state. Initial targets are strict descendants, so each
// step goes deeper and the loop ends at a state without a default
// transition.
func (m *Engine[C, E]) cascade(entered int) {
	for entered > 0 {
		target, ok := m.graph.InitialTarget(m.current)
		if !ok {
			return
		}
		entered = m.execute("", KindInitial, target, m.graph.nodes[m.current].initialDo)
	}
}

func (m *Engine[C, E]) enter(s StateID) {
	m.current = s
	if m.entryHook != nil {
		m.entryHook(m.ctx, s)
	}
	if a := m.graph.nodes[s].entry; a != nil {
		a(m.ctx)
	}
}

func (m *Engine[C, E]) exit(s StateID) {
	if m.exitHook != nil {
		m.exitHook(m.ctx, s)
	}
	if a := m.graph.nodes[s].exit; a != nil {
		a(m.ctx)
	}
}

func (m *Engine[C, E]) logf(sev Severity, format string, args ...any) {
	m.sink.Log(Record{
		Severity:  sev,
		Component: m.name,
		Instance:  m.instanceID,
		Message:   fmt.Sprintf(format, args...),
	})
}

func (m *Engine[C, E]) notifyEvent(event string, outcome Outcome) {
	m.emitEvent(EventRecord{
		Machine:  m.name,
		Instance: m.instanceID,
		Event:    event,
		State:    m.graph.Name(m.current),
		Outcome:  outcome,
	})
}

func (m *Engine[C, E]) emitEvent(r EventRecord) {
	for _, o := range m.observers {
		o.OnEvent(r)
	}
}

func (m *Engine[C, E]) notifyTransition(r TransitionRecord) {
	if len(m.observers) == 0 {
		return
	}
	r.Machine = m.name
	r.Instance = m.instanceID
	for _, o := range m.observers {
		o.OnTransition(r)
	}
}
