package hsm

import (
	"fmt"
	"maps"
	"sync"
)

// Context provides thread-safe storage for extended state. It is the
// context type of machines compiled from declarative definitions, and may
// serve any machine that has no domain object of its own.
type Context struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewContext creates an empty context.
func NewContext() *Context {
	return &Context{
		data: make(map[string]any),
	}
}

// Get retrieves a value by key. Returns nil if the key does not exist.
func (c *Context) Get(key string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data[key]
}

// Lookup retrieves a value by key and reports whether it was present.
func (c *Context) Lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	return v, ok
}

// Set stores a value by key.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

// Delete removes a key from the context.
func (c *Context) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Int returns the integer stored under key, or 0 if the key is absent or
// holds a non-integer value.
func (c *Context) Int(key string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, _ := toInt(c.data[key])
	return n
}

// Add adds delta to the integer stored under key and returns the result.
// A missing key counts as 0.
func (c *Context) Add(key string, delta int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, present := c.data[key]
	n, ok := toInt(v)
	if present && !ok {
		return 0, fmt.Errorf("context key %q holds %T, not an integer", key, v)
	}
	n += delta
	c.data[key] = n
	return n, nil
}

// GetAll returns a copy of every key and value.
func (c *Context) GetAll() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.data)
}

// LoadAll replaces the whole store with a copy of data.
func (c *Context) LoadAll(data map[string]any) {
	snapshot := maps.Clone(data)
	if snapshot == nil {
		snapshot = make(map[string]any)
	}
	c.mu.Lock()
	c.data = snapshot
	c.mu.Unlock()
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case float64:
		return int(n), n == float64(int(n))
	default:
		return 0, false
	}
}
