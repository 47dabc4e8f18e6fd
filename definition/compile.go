package definition

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/comalice/hsm"
)

// Machine is a compiled definition. Its graph may back any number of
// engines.
type Machine struct {
	Name    string
	Version string
	Graph   *hsm.Graph[*hsm.Context, string]
	Top     hsm.StateID
}

// Compile resolves every action and guard reference through reg and
// builds the graph. A nil registry provides only the built-ins.
func Compile(def *Definition, reg *Registry) (*Machine, error) {
	if def == nil {
		return nil, fmt.Errorf("nil definition: %w", ErrInvalidDefinition)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		reg = NewRegistry()
	}
	if err := checkCounters(def, reg); err != nil {
		return nil, err
	}

	var errs []error
	b := hsm.NewGraphBuilder[*hsm.Context, string]()
	for _, s := range def.States {
		if err := declare(b, reg, s); err != nil {
			errs = append(errs, fmt.Errorf("state %q: %w", s.Name, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	g, err := b.Build()
	if err != nil {
		return nil, err
	}
	top := g.MustLookup(stateName(def.Top))

	// Surface scope errors now rather than at the first NewEngine.
	if _, err := hsm.New(g, top, hsm.NewContext(), nil); err != nil {
		return nil, err
	}

	return &Machine{
		Name:    def.Name,
		Version: Fingerprint(def),
		Graph:   g,
		Top:     top,
	}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(def *Definition, reg *Registry) *Machine {
	m, err := Compile(def, reg)
	if err != nil {
		panic(fmt.Sprintf("definition: %v", err))
	}
	return m
}

// NewEngine creates an engine over the machine's graph. A nil ctx gets
// a fresh context. The engine is named after the machine unless opts say
// otherwise.
func (m *Machine) NewEngine(ctx *hsm.Context, opts ...hsm.Option) (*hsm.Engine[*hsm.Context, string], error) {
	if ctx == nil {
		ctx = hsm.NewContext()
	}
	opts = append([]hsm.Option{hsm.WithName(m.Name)}, opts...)
	return hsm.New(m.Graph, m.Top, ctx, nil, opts...)
}

// Describe returns the machine's structure.
func (m *Machine) Describe() hsm.Description {
	d := m.Graph.Describe(func(e string) string { return e })
	d.Name = m.Name
	d.Top = m.Graph.Name(m.Top)
	return d
}

func declare(b *hsm.GraphBuilder[*hsm.Context, string], reg *Registry, s StateDef) error {
	var errs []error
	resolve := func(refs []string) Action {
		a, err := reg.Actions(refs)
		if err != nil {
			errs = append(errs, err)
		}
		return a
	}

	sb := b.Name(stateName(s.Name))
	if s.Parent != "" {
		sb.Parent(stateName(s.Parent))
	}
	sb.OnEntry(resolve(s.Entry)).OnExit(resolve(s.Exit))
	if s.Initial != nil {
		sb.Initially(hsm.InitialTransition[*hsm.Context](stateName(s.Initial.Target)).Do(resolve(s.Initial.Do)))
	}

	for _, t := range s.On {
		then := hsm.EventTransition[*hsm.Context](t.Event).Goto(stateName(t.Goto)).Do(resolve(t.Do))
		if t.If == "" {
			sb.Always(then)
			continue
		}
		g, err := reg.Guard(t.If)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		c := hsm.If[*hsm.Context, string](g).Then(then)
		if t.Else != nil {
			c.Else(hsm.EventTransition[*hsm.Context](t.Event).Goto(stateName(t.Else.Goto)).Do(resolve(t.Else.Do)))
		}
		sb.Conditionally(c)
	}
	return errors.Join(errs...)
}

// checkCounters rejects definitions that apply inc: or dec: to a key the
// same definition sets to a non-integer literal. Such a counter would
// never move.
func checkCounters(def *Definition, reg *Registry) error {
	counters := map[string]bool{}
	nonInt := map[string]string{}
	scan := func(refs []string) {
		for _, ref := range refs {
			if reg.registered(ref) {
				continue
			}
			op, arg, _ := strings.Cut(ref, ":")
			switch op {
			case "inc", "dec":
				counters[arg] = true
			case "set":
				key, raw, _ := strings.Cut(arg, "=")
				switch v := literal(raw).(type) {
				case int:
				case float64:
					if v != math.Trunc(v) {
						nonInt[key] = raw
					}
				default:
					nonInt[key] = raw
				}
			}
		}
	}
	for _, s := range def.States {
		scan(s.Entry)
		scan(s.Exit)
		if s.Initial != nil {
			scan(s.Initial.Do)
		}
		for _, t := range s.On {
			scan(t.Do)
			if t.Else != nil {
				scan(t.Else.Do)
			}
		}
	}

	var errs []error
	for _, key := range slices.Sorted(maps.Keys(counters)) {
		if raw, ok := nonInt[key]; ok {
			errs = append(errs, fmt.Errorf("counter %q is also set to %q: %w", key, raw, ErrInvalidDefinition))
		}
	}
	return errors.Join(errs...)
}
