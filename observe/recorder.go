// Package observe provides ready-made hsm observers: an in-memory
// recorder for tests and tools, and a non-blocking channel publisher.
package observe

import (
	"fmt"
	"strings"
	"sync"

	"github.com/comalice/hsm"
)

// Recorder keeps every record it observes, in order. It is safe for
// concurrent use.
type Recorder struct {
	mu          sync.Mutex
	events      []hsm.EventRecord
	transitions []hsm.TransitionRecord
	lines       []string
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// OnEvent implements hsm.Observer.
func (r *Recorder) OnEvent(e hsm.EventRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	r.lines = append(r.lines, FormatEvent(e))
}

// OnTransition implements hsm.Observer.
func (r *Recorder) OnTransition(t hsm.TransitionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, t)
	r.lines = append(r.lines, FormatTransition(t))
}

// Events returns a copy of the event records.
func (r *Recorder) Events() []hsm.EventRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]hsm.EventRecord(nil), r.events...)
}

// Transitions returns a copy of the transition records.
func (r *Recorder) Transitions() []hsm.TransitionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]hsm.TransitionRecord(nil), r.transitions...)
}

// Trace returns every record formatted as one line, in arrival order.
func (r *Recorder) Trace() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events, r.transitions, r.lines = nil, nil, nil
}

// FormatEvent renders an event record as "event <name> in <state>: <outcome>".
func FormatEvent(e hsm.EventRecord) string {
	return fmt.Sprintf("event %s in %s: %s", e.Event, e.State, e.Outcome)
}

// FormatTransition renders a transition record as
// "<kind> <source> -> <target>" followed by the exited and entered states.
func FormatTransition(t hsm.TransitionRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s -> %s", t.Kind, t.Source, t.Target)
	if len(t.Exited) > 0 {
		fmt.Fprintf(&b, " exit=[%s]", strings.Join(t.Exited, " "))
	}
	if len(t.Entered) > 0 {
		fmt.Fprintf(&b, " enter=[%s]", strings.Join(t.Entered, " "))
	}
	return b.String()
}
