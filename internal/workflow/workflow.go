// Package workflow models the host's serialized node graph and the prompt
// dictionary delivered with every node invocation.
package workflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNodeNotFound is returned when the workflow has no node with the
// requested unique id.
var ErrNodeNotFound = errors.New("node not found in workflow")

// Workflow is the serialized graph. Only the parts needed to resolve a
// node's sockets and properties are typed; the decoded document is kept
// so scripts can see it as-is.
type Workflow struct {
	Nodes []Node         `json:"nodes"`
	Links [][]any        `json:"links,omitempty"`
	Extra map[string]any `json:"extra,omitempty"`

	raw any
}

// Node is one node of the serialized graph.
type Node struct {
	ID            NodeID         `json:"id"`
	Type          string         `json:"type"`
	Inputs        []Socket       `json:"inputs,omitempty"`
	Outputs       []Socket       `json:"outputs,omitempty"`
	Properties    map[string]any `json:"properties,omitempty"`
	WidgetsValues any            `json:"widgets_values,omitempty"`
}

// Socket is a named, typed connection point on a node.
type Socket struct {
	Name  string     `json:"name"`
	Type  SocketType `json:"type"`
	Label string     `json:"label,omitempty"`
	Link  *int       `json:"link,omitempty"`
	Links []int      `json:"links,omitempty"`
}

// NodeID accepts both numeric and string ids. Subgraph nodes use ids such
// as "12:3".
type NodeID string

func (id *NodeID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = NodeID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("node id: %w", err)
	}
	*id = NodeID(n.String())
	return nil
}

func (id NodeID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(id))
}

// Matches reports whether id refers to the same node as uniqueID.
func (id NodeID) Matches(uniqueID string) bool {
	a, b := strings.TrimSpace(string(id)), strings.TrimSpace(uniqueID)
	if a == b {
		return true
	}
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	return errA == nil && errB == nil && na == nb
}

// SocketType is a socket's type name. Event sockets serialize their type
// as a number; those decode to their decimal text.
type SocketType string

func (t *SocketType) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = SocketType(s)
	default:
		*t = SocketType(data)
	}
	return nil
}

// Decode parses a serialized workflow. The host's extra-info form
// {"workflow": {...}} and the bare graph are both accepted.
func Decode(data []byte) (*Workflow, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var envelope struct {
		Workflow json.RawMessage `json:"workflow"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode workflow: %w", err)
	}
	body := data
	if len(envelope.Workflow) > 0 && !bytes.Equal(envelope.Workflow, []byte("null")) {
		body = envelope.Workflow
	}

	wf := &Workflow{}
	if err := json.Unmarshal(body, wf); err != nil {
		return nil, fmt.Errorf("decode workflow: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode workflow: %w", err)
	}
	wf.raw = raw
	return wf, nil
}

// Raw returns the workflow document exactly as the host delivered it.
func (w *Workflow) Raw() any {
	if w == nil {
		return nil
	}
	if w.raw != nil {
		return w.raw
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	return raw
}

// FindNode returns the node whose id matches uniqueID.
func (w *Workflow) FindNode(uniqueID string) (*Node, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: %s (no workflow)", ErrNodeNotFound, uniqueID)
	}
	for i := range w.Nodes {
		if w.Nodes[i].ID.Matches(uniqueID) {
			return &w.Nodes[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, uniqueID)
}

// StringProperty returns a string-valued property, or "".
func (n *Node) StringProperty(name string) string {
	if n == nil || n.Properties == nil {
		return ""
	}
	s, _ := n.Properties[name].(string)
	return s
}
