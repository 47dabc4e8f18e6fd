// Package scenario replays scripted event sequences against a compiled
// definition and checks the machine's state after every step.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/definition"
	"github.com/comalice/hsm/observe"
)

// Scenario is a named list of steps.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Step sends Event, when set, and then checks every expectation given.
type Step struct {
	Event   string         `yaml:"event,omitempty"`
	Handled *bool          `yaml:"handled,omitempty"`
	State   string         `yaml:"state,omitempty"`
	In      []string       `yaml:"in,omitempty"`
	NotIn   []string       `yaml:"not_in,omitempty"`
	Context map[string]int `yaml:"context,omitempty"`
}

// Result is the outcome of one run.
type Result struct {
	Scenario string
	Trace    []string
	Failures []string
}

// Passed reports whether every expectation held.
func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

// WriteTo writes the trace followed by the failures.
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	for _, l := range r.Trace {
		fmt.Fprintln(&buf, l)
	}
	for _, f := range r.Failures {
		fmt.Fprintf(&buf, "FAIL %s\n", f)
	}
	return buf.WriteTo(w)
}

// Parse decodes a YAML scenario.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, errors.New("scenario has no steps")
	}
	return &sc, nil
}

// LoadFile reads a YAML scenario.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

type settings struct {
	ctx  *hsm.Context
	opts []hsm.Option
}

// Option configures Run.
type Option func(*settings)

// WithContext runs the scenario against ctx instead of a fresh context.
func WithContext(ctx *hsm.Context) Option {
	return func(s *settings) { s.ctx = ctx }
}

// WithEngineOptions passes options through to the engine.
func WithEngineOptions(opts ...hsm.Option) Option {
	return func(s *settings) { s.opts = append(s.opts, opts...) }
}

// Run initialises a fresh engine for m and plays sc against it. Failed
// expectations are collected in the result; the error reports only
// problems that prevent the run.
func Run(m *definition.Machine, sc *Scenario, opts ...Option) (*Result, error) {
	if m == nil || sc == nil {
		return nil, errors.New("scenario: nil machine or scenario")
	}
	s := settings{ctx: hsm.NewContext()}
	for _, opt := range opts {
		opt(&s)
	}

	rec := observe.NewRecorder()
	e, err := m.NewEngine(s.ctx, append(s.opts, hsm.WithObserver(rec))...)
	if err != nil {
		return nil, err
	}
	if err := e.Initialize(); err != nil {
		return nil, err
	}

	res := &Result{Scenario: sc.Name}
	seen := 0
	flush := func() {
		lines := rec.Trace()
		res.Trace = append(res.Trace, lines[seen:]...)
		seen = len(lines)
	}
	flush()

	for i, step := range sc.Steps {
		label := fmt.Sprintf("step %d", i+1)
		handled := false
		if step.Event != "" {
			label += fmt.Sprintf(" (%s)", step.Event)
			res.Trace = append(res.Trace, "> "+step.Event)
			handled = e.HandleEvent(step.Event)
			flush()
		}
		res.Failures = append(res.Failures, check(e, s.ctx, step, handled, label)...)
	}
	return res, nil
}

func check(e *hsm.Engine[*hsm.Context, string], ctx *hsm.Context, step Step, handled bool, label string) []string {
	var failures []string
	fail := func(format string, args ...any) {
		failures = append(failures, label+": "+fmt.Sprintf(format, args...))
	}

	if step.Handled != nil && *step.Handled != handled {
		fail("expected handled=%t, got %t", *step.Handled, handled)
	}
	if step.State != "" && step.State != e.CurrentStateName() {
		fail("expected state %s, got %s", step.State, e.CurrentStateName())
	}

	g := e.Graph()
	for _, name := range step.In {
		id, ok := g.Lookup(name)
		if !ok {
			fail("unknown state %s", name)
			continue
		}
		if !e.IsInState(id) {
			fail("expected to be in %s, current state is %s", name, e.CurrentStateName())
		}
	}
	for _, name := range step.NotIn {
		id, ok := g.Lookup(name)
		if !ok {
			fail("unknown state %s", name)
			continue
		}
		if e.IsInState(id) {
			fail("expected not to be in %s, current state is %s", name, e.CurrentStateName())
		}
	}
	for _, key := range slices.Sorted(maps.Keys(step.Context)) {
		if got, want := ctx.Int(key), step.Context[key]; got != want {
			fail("expected context %s=%d, got %d", key, want, got)
		}
	}
	return failures
}
