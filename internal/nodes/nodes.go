// Package nodes implements the script-evaluation node classes and the
// registry the host discovers them through.
package nodes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/soochol/pyexec/internal/workflow"
)

// Category groups every node class in the host's node menu.
const Category = "SP-Nodes"

// AnyType is the wildcard socket type.
const AnyType = "*"

var (
	// ErrUnknownClass is returned for a class name nothing is registered under.
	ErrUnknownClass = errors.New("unknown node class")
	// ErrMissingInput is returned when a required input is absent.
	ErrMissingInput = errors.New("missing required input")
)

// Context names injected by the host into every invocation.
const (
	NameID        = "id"
	NamePrompt    = "prompt"
	NameWorkflow  = "workflow"
	NameDynPrompt = "dynprompt"

	NameGlobals = "gs"
	NameGraph   = "graph"
)

// reserved names are never reported as produced values.
var reserved = map[string]bool{
	NameID:        true,
	NamePrompt:    true,
	NameWorkflow:  true,
	NameDynPrompt: true,
	NameGlobals:   true,
	NameGraph:     true,
}

// hiddenInputs are the context values the host injects, with the host's
// names for them.
var hiddenInputs = map[string]any{
	NamePrompt:    "PROMPT",
	NameID:        "UNIQUE_ID",
	NameWorkflow:  "EXTRA_PNGINFO",
	NameDynPrompt: "DYNPROMPT",
}

// Invocation is one call of a node by the host.
type Invocation struct {
	UniqueID  string
	Inputs    map[string]any
	Workflow  *workflow.Workflow
	Prompt    workflow.Prompt
	DynPrompt any
}

// Input returns a named input value.
func (inv *Invocation) Input(name string) (any, bool) {
	if inv == nil || inv.Inputs == nil {
		return nil, false
	}
	v, ok := inv.Inputs[name]
	return v, ok
}

// StringInput returns a named input when it is a string, or "".
func (inv *Invocation) StringInput(name string) string {
	v, _ := inv.Input(name)
	s, _ := v.(string)
	return s
}

// Response is what a node returns to the host: one value per output slot
// and an optional graph extension.
type Response struct {
	Result []any          `json:"result"`
	Expand map[string]any `json:"expand,omitempty"`
}

// InputTypes describes a node's inputs in the host's format.
type InputTypes struct {
	Required map[string]any `json:"required"`
	Optional map[string]any `json:"optional,omitempty"`
	Hidden   map[string]any `json:"hidden,omitempty"`
}

// Descriptor is the registration record of a node class.
type Descriptor struct {
	Name         string     `json:"name"`
	DisplayName  string     `json:"display_name"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	Input        InputTypes `json:"input"`
	Output       []string   `json:"output"`
	OutputName   []string   `json:"output_name"`
	OutputIsList []bool     `json:"output_is_list"`
	OutputNode   bool       `json:"output_node"`
	Function     string     `json:"function"`
}

// Node is a node class the host can invoke.
type Node interface {
	Descriptor() Descriptor
	Execute(ctx context.Context, inv *Invocation) (*Response, error)
}

// Registry maps class names to node implementations.
type Registry struct {
	mu    sync.RWMutex
	nodes map[string]Node
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{nodes: make(map[string]Node)}
}

// Register adds n under its descriptor name.
func (r *Registry) Register(n Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[n.Descriptor().Name] = n
}

// Get returns the node registered under class.
func (r *Registry) Get(class string) (Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.nodes[class]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClass, class)
	}
	return n, nil
}

// Names returns the registered class names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.nodes))
	for name := range r.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptors returns every registered descriptor keyed by class name.
func (r *Registry) Descriptors() map[string]Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Descriptor, len(r.nodes))
	for name, n := range r.nodes {
		out[name] = n.Descriptor()
	}
	return out
}

// Defaults returns a registry holding every node class of the plugin.
func Defaults(rt *Runtime) *Registry {
	r := NewRegistry()
	r.Register(NewDynamicGroupNode(rt))
	r.Register(NewPyExec(rt, "PyExec", 20, false))
	r.Register(NewPyExec(rt, "PyExec_Output", 20, true))
	r.Register(NewPyExec(rt, "PyExec5", 5, false))
	r.Register(OutputIsList{})
	return r
}
