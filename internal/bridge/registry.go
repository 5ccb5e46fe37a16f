// Package bridge correlates calls waiting on browser-evaluated code with the
// results the browser posts back.
package bridge

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNotWaiting is returned by Deliver when no call is registered for the id.
var ErrNotWaiting = errors.New("no pending call for id")

// Pending is one in-flight call waiting for its result.
type Pending struct {
	ID string

	mu       sync.Mutex
	result   any
	received bool
}

// Result returns the delivered result and whether one has arrived.
func (p *Pending) Result() (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result, p.received
}

func (p *Pending) deliver(result any) {
	p.mu.Lock()
	p.result = result
	p.received = true
	p.mu.Unlock()
}

// Registry is the process-wide mapping from a node's unique id to its
// in-flight call. It assumes at most one in-flight invocation per id: the
// host never runs the same node id twice at once, and a second Insert for
// an id replaces the first.
type Registry struct {
	mu      sync.RWMutex
	pending map[string]*Pending
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{pending: make(map[string]*Pending)}
}

// Insert registers a new pending call for id and returns it.
func (r *Registry) Insert(id string) *Pending {
	p := &Pending{ID: id}
	r.mu.Lock()
	r.pending[id] = p
	r.mu.Unlock()
	return p
}

// Lookup returns the pending call for id.
func (r *Registry) Lookup(id string) (*Pending, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pending[id]
	return p, ok
}

// Remove drops the entry for id if it still refers to p.
func (r *Registry) Remove(p *Pending) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.pending[p.ID]; ok && cur == p {
		delete(r.pending, p.ID)
	}
}

// Deliver hands result to the call waiting under id.
func (r *Registry) Deliver(id string, result any) error {
	p, ok := r.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotWaiting, id)
	}
	p.deliver(result)
	return nil
}

// Len returns the number of in-flight calls.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pending)
}
