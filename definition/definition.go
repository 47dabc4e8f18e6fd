// Package definition loads hierarchical state machines from YAML, JSON
// or CUE documents and compiles them into hsm graphs whose context is an
// *hsm.Context and whose events are strings.
package definition

import (
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidDefinition is wrapped by every Validate failure.
var ErrInvalidDefinition = errors.New("invalid definition")

// Definition describes one machine.
type Definition struct {
	Version string     `json:"version,omitempty" yaml:"version,omitempty"`
	Name    string     `json:"name" yaml:"name"`
	Top     string     `json:"top" yaml:"top"`
	States  []StateDef `json:"states" yaml:"states"`
}

// StateDef describes one state. Entry and Exit list action references
// run in order.
type StateDef struct {
	Name    string          `json:"name" yaml:"name"`
	Parent  string          `json:"parent,omitempty" yaml:"parent,omitempty"`
	Initial *InitialDef     `json:"initial,omitempty" yaml:"initial,omitempty"`
	Entry   []string        `json:"entry,omitempty" yaml:"entry,omitempty"`
	Exit    []string        `json:"exit,omitempty" yaml:"exit,omitempty"`
	On      []TransitionDef `json:"on,omitempty" yaml:"on,omitempty"`
}

// InitialDef is a state's default transition.
type InitialDef struct {
	Target string   `json:"target" yaml:"target"`
	Do     []string `json:"do,omitempty" yaml:"do,omitempty"`
}

// TransitionDef is an event transition. An empty Goto makes it internal.
// If names a guard; Else is taken when the guard does not hold.
type TransitionDef struct {
	Event string     `json:"event" yaml:"event"`
	Goto  string     `json:"goto,omitempty" yaml:"goto,omitempty"`
	Do    []string   `json:"do,omitempty" yaml:"do,omitempty"`
	If    string     `json:"if,omitempty" yaml:"if,omitempty"`
	Else  *BranchDef `json:"else,omitempty" yaml:"else,omitempty"`
}

// BranchDef is the alternative of a guarded transition.
type BranchDef struct {
	Goto string   `json:"goto,omitempty" yaml:"goto,omitempty"`
	Do   []string `json:"do,omitempty" yaml:"do,omitempty"`
}

// Validate checks the document-level requirements. Structural problems
// such as unknown parents or cycles are reported by Compile.
func (d *Definition) Validate() error {
	var errs []error
	if d.Name == "" {
		errs = append(errs, fmt.Errorf("machine name is required: %w", ErrInvalidDefinition))
	}
	if d.Top == "" {
		errs = append(errs, fmt.Errorf("top state is required: %w", ErrInvalidDefinition))
	}
	if len(d.States) == 0 {
		errs = append(errs, fmt.Errorf("at least one state is required: %w", ErrInvalidDefinition))
	}

	top := norm.NFC.String(d.Top)
	foundTop := false
	for i, s := range d.States {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("state #%d has no name: %w", i, ErrInvalidDefinition))
			continue
		}
		if norm.NFC.String(s.Name) == top {
			foundTop = true
		}
		for j, t := range s.On {
			if t.Event == "" {
				errs = append(errs, fmt.Errorf("state %q transition #%d has no event: %w", s.Name, j, ErrInvalidDefinition))
			}
			if t.Else != nil && t.If == "" {
				errs = append(errs, fmt.Errorf("state %q event %q: else without if: %w", s.Name, t.Event, ErrInvalidDefinition))
			}
		}
	}
	if d.Top != "" && !foundTop {
		errs = append(errs, fmt.Errorf("top state %q is not declared: %w", d.Top, ErrInvalidDefinition))
	}
	return errors.Join(errs...)
}

// stateName canonicalises a state name so that equivalent Unicode
// spellings address the same state.
func stateName(s string) string {
	return norm.NFC.String(s)
}
