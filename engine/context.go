// Package engine implements the dependency-driven task-graph scheduler: the
// task/agent/dependency model, the template binder, the node fabric's local
// half, the scheduler itself, and the crew/builder façade. The comments in
// this package favor stating invariants over restating behavior already
// obvious from the name, matching the density the teacher repo used for its
// own foundational package (framework/context.go et al.).
package engine

import (
	"sync"
)

// ValueContext is the shared result context described in spec §3: a mapping
// from string to opaque value, write-once per key, read-many. User-supplied
// initial values and task result keys live in the same namespace.
type ValueContext struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewValueContext builds a context seeded with the given initial values.
// A nil map is treated as empty.
func NewValueContext(initial map[string]any) *ValueContext {
	values := make(map[string]any, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &ValueContext{values: values}
}

// Get retrieves a value.
func (c *ValueContext) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Has reports whether key has been written.
func (c *ValueContext) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// SetOnce writes key the first time it is seen and errors if it is already
// present. The validator guarantees unique result keys across a crew, so in
// a well-formed run this condition can never fire; callers should still
// treat its error as fatal rather than silently overwriting (spec §9).
func (c *ValueContext) SetOnce(key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.values[key]; exists {
		return &ValidationError{
			Kind:   ValidationDuplicateResultKey,
			Detail: "key " + key + " was already written to the result context",
		}
	}
	c.values[key] = value
	return nil
}

// Snapshot returns a shallow copy of the underlying map, safe for the caller
// to range over without holding the context's lock.
func (c *ValueContext) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// HasAll reports whether every key in keys is present.
func (c *ValueContext) HasAll(keys []string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, k := range keys {
		if _, ok := c.values[k]; !ok {
			return false
		}
	}
	return true
}
