// Package visualize renders graph descriptions as Graphviz DOT or JSON.
package visualize

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/comalice/hsm"
)

// DOT generates Graphviz DOT source for a described graph. Composite
// states become clusters; states named in active are highlighted.
// Initial transitions are dashed and internal transitions are dotted
// self-loops.
func DOT(d hsm.Description, active ...string) string {
	var buf bytes.Buffer
	name := d.Name
	if name == "" {
		name = "Statechart"
	}
	fmt.Fprintf(&buf, "digraph %s {\n", quote(name))
	buf.WriteString(`  rankdir=LR;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
`)

	on := make(map[string]bool, len(active))
	for _, s := range active {
		on[s] = true
	}
	byName := make(map[string]hsm.StateDescription, len(d.States))
	for _, s := range d.States {
		byName[s.Name] = s
	}

	for _, s := range d.States {
		if s.Parent == "" {
			renderState(&buf, s, byName, on, "  ")
		}
	}

	buf.WriteString("\n")
	for _, s := range d.States {
		if s.Initial != "" {
			fmt.Fprintf(&buf, "  %s -> %s [style=dashed, label=\"initial\"];\n", quote(s.Name), quote(s.Initial))
		}
		for _, t := range s.Transitions {
			target := t.Target
			attrs := []string{"label=" + quote(edgeLabel(t))}
			if target == "" {
				target = s.Name
				attrs = append(attrs, "style=dotted")
			}
			fmt.Fprintf(&buf, "  %s -> %s [%s];\n", quote(s.Name), quote(target), strings.Join(attrs, ", "))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// EngineDOT renders an engine's graph with its active configuration
// highlighted.
func EngineDOT[C any, E comparable](e *hsm.Engine[C, E]) string {
	return DOT(e.Describe(), e.ActiveStates()...)
}

// JSON serializes a description.
func JSON(d hsm.Description) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// renderState recursively renders states and subgraphs.
func renderState(buf *bytes.Buffer, s hsm.StateDescription, byName map[string]hsm.StateDescription, on map[string]bool, indent string) {
	if len(s.Children) == 0 {
		style := ""
		if on[s.Name] {
			style = `, style="rounded,filled", fillcolor=lightgreen`
		}
		fmt.Fprintf(buf, "%s%s [label=%s%s];\n", indent, quote(s.Name), quote(s.Name), style)
		return
	}

	style := ""
	if on[s.Name] {
		style = ", style=filled, fillcolor=orange"
	}
	fmt.Fprintf(buf, "%ssubgraph %s {\n", indent, quote("cluster_"+s.Name))
	fmt.Fprintf(buf, "%s  label=%s;\n", indent, quote(s.Name))
	fmt.Fprintf(buf, "%s  %s [label=%s, shape=ellipse%s];\n", indent, quote(s.Name), quote(s.Name), style)
	for _, c := range s.Children {
		if child, ok := byName[c]; ok {
			renderState(buf, child, byName, on, indent+"  ")
		}
	}
	fmt.Fprintf(buf, "%s}\n", indent)
}

func edgeLabel(t hsm.TransitionDescription) string {
	switch {
	case t.Else:
		return t.Event + " [else]"
	case t.Guarded:
		return t.Event + " [guard]"
	default:
		return t.Event
	}
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
