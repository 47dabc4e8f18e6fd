// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/definition"
)

// GenFlat creates a machine with n leaf states under one top, cycling via
// "tick" events.
func GenFlat(n int) *definition.Definition {
	if n < 1 {
		n = 1
	}
	def := &definition.Definition{
		Name:   fmt.Sprintf("flat_%d", n),
		Top:    "top",
		States: []definition.StateDef{{Name: "top", Initial: &definition.InitialDef{Target: "s0"}}},
	}
	for i := 0; i < n; i++ {
		def.States = append(def.States, definition.StateDef{
			Name:   fmt.Sprintf("s%d", i),
			Parent: "top",
			On:     []definition.TransitionDef{{Event: "tick", Goto: fmt.Sprintf("s%d", (i+1)%n)}},
		})
	}
	return def
}

// GenDeep creates two chains of depth nested composites, a0..a<depth-1>
// and b0..b<depth-1>, under one top. Each chain ends in an x and a y leaf.
// "tick" flips between the leaves of a chain; "climb" moves to the other
// chain, exiting and entering both chains completely.
func GenDeep(depth int) *definition.Definition {
	if depth < 1 {
		depth = 1
	}
	def := &definition.Definition{
		Name:   fmt.Sprintf("deep_%d", depth),
		Top:    "root",
		States: []definition.StateDef{{Name: "root", Initial: &definition.InitialDef{Target: "a0"}}},
	}
	for _, chain := range [][2]string{{"a", "b"}, {"b", "a"}} {
		p, other := chain[0], chain[1]
		for i := 0; i < depth; i++ {
			s := definition.StateDef{Name: fmt.Sprintf("%s%d", p, i), Parent: "root"}
			if i > 0 {
				s.Parent = fmt.Sprintf("%s%d", p, i-1)
			}
			next := fmt.Sprintf("%s%d", p, i+1)
			if i == depth-1 {
				next = p + "x"
			}
			s.Initial = &definition.InitialDef{Target: next}
			def.States = append(def.States, s)
		}
		bottom := fmt.Sprintf("%s%d", p, depth-1)
		climb := definition.TransitionDef{Event: "climb", Goto: other + "0"}
		def.States = append(def.States,
			definition.StateDef{Name: p + "x", Parent: bottom, On: []definition.TransitionDef{
				{Event: "tick", Goto: p + "y"}, climb,
			}},
			definition.StateDef{Name: p + "y", Parent: bottom, On: []definition.TransitionDef{
				{Event: "tick", Goto: p + "x"}, climb,
			}},
		)
	}
	return def
}

// GenWideGuards creates one main state with n guarded "tick" transitions;
// only the last guard holds.
func GenWideGuards(n int) *definition.Definition {
	if n < 1 {
		n = 1
	}
	main := definition.StateDef{Name: "main", Parent: "top", Entry: []string{fmt.Sprintf("set:k=%d", n-1)}}
	for i := 0; i < n; i++ {
		main.On = append(main.On, definition.TransitionDef{
			Event: "tick",
			If:    fmt.Sprintf("k == %d", i),
			Goto:  "main",
		})
	}
	return &definition.Definition{
		Name: fmt.Sprintf("wide_%d", n),
		Top:  "top",
		States: []definition.StateDef{
			{Name: "top", Initial: &definition.InitialDef{Target: "main"}},
			main,
		},
	}
}

// MustEngine compiles def and returns an initialized engine.
func MustEngine(def *definition.Definition, opts ...hsm.Option) *hsm.Engine[*hsm.Context, string] {
	m := definition.MustCompile(def, nil)
	e, err := m.NewEngine(nil, opts...)
	if err != nil {
		panic(err)
	}
	if err := e.Initialize(); err != nil {
		panic(err)
	}
	return e
}

// GenDefinitionYAML renders a definition as YAML.
func GenDefinitionYAML(def *definition.Definition) []byte {
	data, err := yaml.Marshal(def)
	if err != nil {
		panic(err)
	}
	return data
}
