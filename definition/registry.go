package definition

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/comalice/hsm"
)

// ErrUnknownReference is wrapped when an action or guard name cannot be
// resolved.
var ErrUnknownReference = errors.New("unknown reference")

// Action and Guard are the callback types of compiled machines.
type (
	Action = hsm.Action[*hsm.Context]
	Guard  = hsm.Guard[*hsm.Context]
)

// Registry maps names used in definitions to callbacks.
//
// Besides registered names, action references of the form "inc:<key>",
// "dec:<key>", "set:<key>=<value>" and "reset:<key>" operate on the
// context directly, and any guard of the form "<key> <op> <value>" is
// evaluated against it. inc and dec treat a missing key as zero; when the
// key holds a value that is not an integer the write is skipped and the
// value is left as it was. Compile rejects definitions that set a counter
// key to a non-integer literal.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
	guards  map[string]Guard
}

// NewRegistry creates a registry holding only the built-ins.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]Action),
		guards:  make(map[string]Guard),
	}
}

// RegisterAction binds name to a. A later registration replaces an
// earlier one.
func (r *Registry) RegisterAction(name string, a Action) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[name] = a
	return r
}

// RegisterGuard binds name to g.
func (r *Registry) RegisterGuard(name string, g Guard) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guards[name] = g
	return r
}

func (r *Registry) registered(ref string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.actions[ref]
	return ok
}

// Action resolves a single action reference.
func (r *Registry) Action(ref string) (Action, error) {
	r.mu.RLock()
	a, ok := r.actions[ref]
	r.mu.RUnlock()
	if ok {
		return a, nil
	}

	op, arg, found := strings.Cut(ref, ":")
	if !found || arg == "" {
		return nil, fmt.Errorf("action %q: %w", ref, ErrUnknownReference)
	}
	switch op {
	case "inc":
		// Add fails only on a non-integer value, which stays untouched.
		return func(c *hsm.Context) { _, _ = c.Add(arg, 1) }, nil
	case "dec":
		return func(c *hsm.Context) { _, _ = c.Add(arg, -1) }, nil
	case "reset":
		return func(c *hsm.Context) { c.Set(arg, 0) }, nil
	case "set":
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("action %q: expected set:<key>=<value>", ref)
		}
		val := literal(raw)
		return func(c *hsm.Context) { c.Set(key, val) }, nil
	default:
		return nil, fmt.Errorf("action %q: %w", ref, ErrUnknownReference)
	}
}

// Actions resolves a list of references into one action running them in
// order. An empty list yields a nil action.
func (r *Registry) Actions(refs []string) (Action, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	var errs []error
	seq := make([]Action, 0, len(refs))
	for _, ref := range refs {
		a, err := r.Action(ref)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		seq = append(seq, a)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(seq) == 1 {
		return seq[0], nil
	}
	return func(c *hsm.Context) {
		for _, a := range seq {
			a(c)
		}
	}, nil
}

// Guard resolves a registered guard name or parses an expression
// "<key> <op> <value>" with op one of == != > < >= <=.
//
// A key missing from the context satisfies only "!=". Ordering operators
// need numeric operands; == and != also compare booleans and strings.
func (r *Registry) Guard(ref string) (Guard, error) {
	r.mu.RLock()
	g, ok := r.guards[ref]
	r.mu.RUnlock()
	if ok {
		return g, nil
	}

	// Parse "key op value"
	parts := strings.Fields(ref)
	if len(parts) != 3 {
		return nil, fmt.Errorf("guard %q: %w", ref, ErrUnknownReference)
	}
	key, op, raw := parts[0], parts[1], parts[2]
	want := literal(raw)

	switch op {
	case "==", "!=":
		negate := op == "!="
		return func(c *hsm.Context) bool {
			v, present := c.Lookup(key)
			if !present {
				return negate
			}
			return equal(v, want) != negate
		}, nil
	case ">", "<", ">=", "<=":
		w, ok := number(want)
		if !ok {
			return nil, fmt.Errorf("guard %q: %s needs a numeric operand", ref, op)
		}
		cmp := ordering(op)
		return func(c *hsm.Context) bool {
			f, ok := number(c.Get(key))
			return ok && cmp(f, w)
		}, nil
	default:
		return nil, fmt.Errorf("guard %q: unsupported operator %q", ref, op)
	}
}

func ordering(op string) func(a, b float64) bool {
	switch op {
	case ">":
		return func(a, b float64) bool { return a > b }
	case "<":
		return func(a, b float64) bool { return a < b }
	case ">=":
		return func(a, b float64) bool { return a >= b }
	default:
		return func(a, b float64) bool { return a <= b }
	}
}

// literal interprets a textual value as an int, float, bool or string.
func literal(raw string) any {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	return strings.Trim(raw, `"'`)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func equal(v, want any) bool {
	if a, ok := number(v); ok {
		b, ok := number(want)
		return ok && a == b
	}
	return v == want
}
