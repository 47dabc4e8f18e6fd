package hsm_test

import (
	"fmt"
	"testing"

	. "github.com/comalice/hsm"
	"github.com/stretchr/testify/require"
)

type event string

const (
	evLock   event = "Lock"
	evUnlock event = "Unlock"
	evOpen   event = "Open"
	evClose  event = "Close"
)

// trace is the context of the test machines; every callback appends to it.
type trace struct {
	steps []string
	n     int
}

func (t *trace) add(format string, args ...any) {
	t.steps = append(t.steps, fmt.Sprintf(format, args...))
}

// take returns the recorded steps and clears the trace.
func (t *trace) take() []string {
	s := t.steps
	t.steps = nil
	return s
}

func entered(name string) Action[*trace] {
	return func(t *trace) { t.add("enter %s", name) }
}

func exited(name string) Action[*trace] {
	return func(t *trace) { t.add("exit %s", name) }
}

func note(msg string) Action[*trace] {
	return func(t *trace) { t.add("%s", msg) }
}

// doorGraph builds:
//
//	Exists
//	├── Closed (initial)
//	│   ├── Locked
//	│   └── Unlocked (initial)
//	└── Opened
func doorGraph(t testing.TB) *Graph[*trace, event] {
	t.Helper()
	b := NewGraphBuilder[*trace, event]()
	b.Name("Exists").
		OnEntry(entered("Exists")).OnExit(exited("Exists")).
		Initially(InitialTransition[*trace]("Closed"))
	b.Name("Closed").Parent("Exists").
		OnEntry(entered("Closed")).OnExit(exited("Closed")).
		Initially(InitialTransition[*trace]("Unlocked"))
	b.Name("Locked").Parent("Closed").
		OnEntry(entered("Locked")).OnExit(exited("Locked")).
		Always(EventTransition[*trace](evUnlock).Goto("Unlocked")).
		Always(EventTransition[*trace](evOpen).Do(note("rattle")))
	b.Name("Unlocked").Parent("Closed").
		OnEntry(entered("Unlocked")).OnExit(exited("Unlocked")).
		Always(EventTransition[*trace](evLock).Goto("Locked")).
		Always(EventTransition[*trace](evOpen).Goto("Opened"))
	b.Name("Opened").Parent("Exists").
		OnEntry(entered("Opened")).OnExit(exited("Opened")).
		Always(EventTransition[*trace](evClose).Goto("Closed"))

	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func newDoor(t testing.TB, opts ...Option) (*Engine[*trace, event], *trace) {
	t.Helper()
	g := doorGraph(t)
	tr := &trace{}
	m, err := New(g, g.MustLookup("Exists"), tr, nil, opts...)
	require.NoError(t, err)
	return m, tr
}

// counterGraph is a machine whose callbacks only bump a counter:
//
//	Testing (initial Alpha, Reset -> Alpha / n=0)
//	├── Alpha (entry n++, Jump -> Beta, Run -> Beta / n++)
//	└── Beta (entry n++, initial Gamma / n++, Hide internal / n++)
//	    └── Gamma (exit n++)
func counterGraph(t testing.TB) *Graph[*trace, event] {
	t.Helper()
	inc := func(t *trace) { t.n++ }
	b := NewGraphBuilder[*trace, event]()
	b.Name("Testing").
		Initially(InitialTransition[*trace]("Alpha")).
		Always(EventTransition[*trace](event("Reset")).Goto("Alpha").Do(func(t *trace) { t.n = 0 }))
	b.Name("Alpha").Parent("Testing").
		OnEntry(inc).
		Always(EventTransition[*trace](event("Jump")).Goto("Beta")).
		Always(EventTransition[*trace](event("Run")).Goto("Beta").Do(inc))
	b.Name("Beta").Parent("Testing").
		OnEntry(inc).
		Initially(InitialTransition[*trace]("Gamma").Do(inc)).
		Always(EventTransition[*trace](event("Hide")).Do(inc))
	b.Name("Gamma").Parent("Beta").
		OnExit(inc)
	return b.MustBuild()
}

// recorder collects observer callbacks.
type recorder struct {
	events      []EventRecord
	transitions []TransitionRecord
}

func (r *recorder) OnEvent(e EventRecord)           { r.events = append(r.events, e) }
func (r *recorder) OnTransition(t TransitionRecord) { r.transitions = append(r.transitions, t) }

// records collects diagnostics.
type records []Record

func (r *records) sink() Sink {
	return SinkFunc(func(rec Record) { *r = append(*r, rec) })
}

func (r records) messages(sev Severity) []string {
	var out []string
	for _, rec := range r {
		if rec.Severity == sev {
			out = append(out, rec.Message)
		}
	}
	return out
}
