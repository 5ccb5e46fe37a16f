package workflow

import (
	"encoding/json"
	"sort"
)

// Prompt is the host's parameter dictionary, keyed by unique id.
type Prompt map[string]PromptNode

// PromptNode holds the authored input values of one node.
type PromptNode struct {
	ClassType string         `json:"class_type"`
	Inputs    map[string]any `json:"inputs"`
}

// Widgets returns the originally authored widget values of the node with
// the given unique id. Names listed in exclude are dropped, as are
// inputs wired to another node (encoded as [nodeID, slot]).
func (p Prompt) Widgets(uniqueID string, exclude ...string) map[string]any {
	node, ok := p[uniqueID]
	if !ok {
		return map[string]any{}
	}
	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}
	out := make(map[string]any, len(node.Inputs))
	for name, value := range node.Inputs {
		if skip[name] || isLink(value) {
			continue
		}
		out[name] = value
	}
	return out
}

// AsMap converts the prompt into plain maps for script bindings.
func (p Prompt) AsMap() map[string]any {
	if p == nil {
		return nil
	}
	out := make(map[string]any, len(p))
	for id, node := range p {
		inputs := make(map[string]any, len(node.Inputs))
		for k, v := range node.Inputs {
			inputs[k] = v
		}
		out[id] = map[string]any{
			"class_type": node.ClassType,
			"inputs":     inputs,
		}
	}
	return out
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isLink(v any) bool {
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return false
	}
	_, isStr := pair[0].(string)
	switch pair[1].(type) {
	case float64, int, int64, json.Number:
		return isStr
	}
	return false
}
