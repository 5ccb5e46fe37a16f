package workflow

import (
	"fmt"
	"strings"
)

// Output is one declared output socket.
type Output struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Signature is the ordered list of a node's declared outputs.
type Signature []Output

// Names returns the output names in declared order.
func (s Signature) Names() []string {
	names := make([]string, len(s))
	for i, o := range s {
		names[i] = o.Name
	}
	return names
}

// Types returns the output types in declared order.
func (s Signature) Types() []string {
	types := make([]string, len(s))
	for i, o := range s {
		types[i] = o.Type
	}
	return types
}

// Slots is the number of output slots a response must fill. A node with
// no declared outputs still has its single default slot.
func (s Signature) Slots() int {
	if len(s) == 0 {
		return 1
	}
	return len(s)
}

// Signature returns the node's valid output sockets: both name and type
// must be non-empty. When the node carries no output sockets the
// "outputs" property ("name: TYPE" lines) is used instead.
func (n *Node) Signature() Signature {
	if n == nil {
		return nil
	}
	var sig Signature
	seen := map[string]bool{}
	for _, out := range n.Outputs {
		name, typ := strings.TrimSpace(out.Name), strings.TrimSpace(string(out.Type))
		if name == "" || typ == "" || seen[name] {
			continue
		}
		seen[name] = true
		sig = append(sig, Output{Name: name, Type: typ})
	}
	if len(n.Outputs) == 0 {
		if decl := n.StringProperty("outputs"); decl != "" {
			sig = ParseSockets(decl, "*")
		}
	}
	return sig
}

// ResolveSignature looks up the node with the given unique id and returns
// its current output signature. It is computed from the snapshot passed
// in and never cached.
func ResolveSignature(w *Workflow, uniqueID string) (Signature, *Node, error) {
	node, err := w.FindNode(uniqueID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve signature: %w", err)
	}
	return node.Signature(), node, nil
}

// ParseSockets parses socket declarations, one "name: TYPE" per line.
// A missing type takes defaultType; types are upper-cased.
func ParseSockets(decl, defaultType string) Signature {
	var sig Signature
	seen := map[string]bool{}
	for _, line := range strings.Split(decl, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, typ, _ := strings.Cut(line, ":")
		name, typ = strings.TrimSpace(name), strings.TrimSpace(typ)
		if name == "" || seen[name] {
			continue
		}
		if typ == "" {
			typ = defaultType
		}
		seen[name] = true
		sig = append(sig, Output{Name: name, Type: strings.ToUpper(typ)})
	}
	return sig
}
