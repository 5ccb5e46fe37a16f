// Package graph builds the graph extension a node may return alongside its
// result so the host can splice extra nodes into the running prompt.
package graph

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Builder collects nodes for an expansion. Ids are prefixed so nodes from
// different invocations never collide.
type Builder struct {
	prefix string
	nodes  map[string]*Node
	order  []string
	nextID int
}

// NewBuilder returns a Builder using prefix for node ids. An empty prefix
// allocates a unique one.
func NewBuilder(prefix string) *Builder {
	if prefix == "" {
		prefix = strings.SplitN(uuid.NewString(), "-", 2)[0] + "."
	}
	return &Builder{
		prefix: prefix,
		nodes:  make(map[string]*Node),
		nextID: 1,
	}
}

// Prefix returns the id prefix of this builder.
func (b *Builder) Prefix() string { return b.prefix }

// Node adds a node of classType. When id is empty the next sequential id is
// used. Adding an id twice returns the existing node.
func (b *Builder) Node(classType, id string, inputs map[string]any) *Node {
	if id == "" {
		id = strconv.Itoa(b.nextID)
		b.nextID++
	}
	id = b.prefix + id
	if n, ok := b.nodes[id]; ok {
		return n
	}
	n := &Node{ID: id, ClassType: classType, Inputs: make(map[string]any, len(inputs))}
	for k, v := range inputs {
		n.SetInput(k, v)
	}
	b.nodes[id] = n
	b.order = append(b.order, id)
	return n
}

// Lookup returns the node added under id, which is prefixed the same way
// Node prefixes it.
func (b *Builder) Lookup(id string) (*Node, bool) {
	n, ok := b.nodes[b.prefix+id]
	return n, ok
}

// Len returns the number of nodes added so far.
func (b *Builder) Len() int { return len(b.order) }

// Finalize returns the expansion as {id: {"class_type", "inputs"}}.
func (b *Builder) Finalize() map[string]any {
	out := make(map[string]any, len(b.order))
	for _, id := range b.order {
		out[id] = b.nodes[id].Serialize()
	}
	return out
}

// Node is a single node of an expansion.
type Node struct {
	ID        string
	ClassType string
	Inputs    map[string]any
}

// Out references output slot index of this node, in the host's link form.
func (n *Node) Out(index int) []any {
	return []any{n.ID, index}
}

// SetInput sets an input value; a nil value removes the input.
func (n *Node) SetInput(name string, value any) {
	if value == nil {
		delete(n.Inputs, name)
		return
	}
	n.Inputs[name] = value
}

// Serialize returns the node in prompt form.
func (n *Node) Serialize() map[string]any {
	inputs := make(map[string]any, len(n.Inputs))
	for k, v := range n.Inputs {
		inputs[k] = v
	}
	return map[string]any{
		"class_type": n.ClassType,
		"inputs":     inputs,
	}
}
