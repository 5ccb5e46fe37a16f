package script

import (
	"sort"
	"sync"

	"go.starlark.net/starlark"
)

// Globals is the process-wide storage exposed to scripts as "gs". Values
// written by one invocation are visible to every later one.
type Globals struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewGlobals returns empty storage.
func NewGlobals() *Globals {
	return &Globals{data: make(map[string]any)}
}

// Get returns the stored value for name as it was written.
func (g *Globals) Get(name string) (any, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	v, ok := g.data[name]
	return v, ok
}

// Value returns the stored value for name converted to plain Go values,
// or nil when absent.
func (g *Globals) Value(name string) any {
	v, ok := g.Get(name)
	if !ok {
		return nil
	}
	if sv, ok := v.(starlark.Value); ok {
		return fromStarlark(sv)
	}
	return v
}

// Set inserts or replaces the value for name.
func (g *Globals) Set(name string, v any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.data[name] = v
}

// Delete removes name and reports whether it was present.
func (g *Globals) Delete(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.data[name]; !ok {
		return false
	}
	delete(g.data, name)
	return true
}

// Keys returns the stored names, sorted.
func (g *Globals) Keys() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.data))
	for k := range g.data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns all stored values converted to plain Go values.
func (g *Globals) Snapshot() map[string]any {
	out := make(map[string]any)
	for _, k := range g.Keys() {
		out[k] = g.Value(k)
	}
	return out
}
