package hsm

// Description is a non-generic snapshot of a graph's structure, used for
// visualisation and export.
type Description struct {
	Name   string             `json:"name,omitempty" yaml:"name,omitempty"`
	Top    string             `json:"top,omitempty" yaml:"top,omitempty"`
	States []StateDescription `json:"states" yaml:"states"`
}

// StateDescription describes one state.
type StateDescription struct {
	Name        string                  `json:"name" yaml:"name"`
	Parent      string                  `json:"parent,omitempty" yaml:"parent,omitempty"`
	Initial     string                  `json:"initial,omitempty" yaml:"initial,omitempty"`
	Children    []string                `json:"children,omitempty" yaml:"children,omitempty"`
	Transitions []TransitionDescription `json:"transitions,omitempty" yaml:"transitions,omitempty"`
}

// TransitionDescription describes one event transition. An empty Target
// denotes an internal transition.
type TransitionDescription struct {
	Event   string `json:"event" yaml:"event"`
	Target  string `json:"target,omitempty" yaml:"target,omitempty"`
	Guarded bool   `json:"guarded,omitempty" yaml:"guarded,omitempty"`
	Else    bool   `json:"else,omitempty" yaml:"else,omitempty"`
}

// Describe renders the graph's structure with events formatted by format.
// States appear in declaration order and transitions in lookup order.
func (g *Graph[C, E]) Describe(format func(E) string) Description {
	var d Description
	for i := range g.nodes {
		n := &g.nodes[i]
		sd := StateDescription{Name: n.name}
		if n.parent != NoState {
			sd.Parent = g.Name(n.parent)
		}
		if n.initial != NoState {
			sd.Initial = g.Name(n.initial)
		}
		for _, c := range n.children {
			sd.Children = append(sd.Children, g.Name(c))
		}
		for _, c := range n.conditionals {
			sd.Transitions = append(sd.Transitions, g.describeTransition(c.then, format, true, false))
			if c.orElse != nil {
				sd.Transitions = append(sd.Transitions, g.describeTransition(*c.orElse, format, true, true))
			}
		}
		for _, t := range n.transitions {
			sd.Transitions = append(sd.Transitions, g.describeTransition(t, format, false, false))
		}
		d.States = append(d.States, sd)
	}
	return d
}

func (g *Graph[C, E]) describeTransition(t transition[C, E], format func(E) string, guarded, orElse bool) TransitionDescription {
	td := TransitionDescription{Event: format(t.event), Guarded: guarded, Else: orElse}
	if t.target != NoState {
		td.Target = g.Name(t.target)
	}
	return td
}
