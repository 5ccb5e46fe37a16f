package nodes

import (
	"context"
	"encoding/json"

	"github.com/soochol/pyexec/internal/graph"
	"github.com/soochol/pyexec/internal/logging"
	"github.com/soochol/pyexec/internal/script"
	"github.com/soochol/pyexec/internal/workflow"
)

// EventJavaScript is the push message type asking a front-end to run code.
const EventJavaScript = "pyexec_js"

// JavaScriptRequest is the payload of an EventJavaScript message.
type JavaScriptRequest struct {
	ID        string         `json:"id"`
	Code      string         `json:"code"`
	Outputs   []string       `json:"outputs"`
	Namespace map[string]any `json:"namespace"`
}

// evaluateInBrowser publishes the bound namespace to the connected
// front-ends and waits for one of them to post the result back under id.
func (rt *Runtime) evaluateInBrowser(ctx context.Context, id, code string, ns *script.Namespace, sig workflow.Signature) *Response {
	logger := logging.FromContext(ctx)

	p := rt.Bridge.Insert(id)
	defer rt.Bridge.Remove(p)

	req := JavaScriptRequest{
		ID:        id,
		Code:      code,
		Outputs:   sig.Names(),
		Namespace: browserNamespace(ctx, ns),
	}
	if rt.Publisher == nil {
		logger.Warn("pyexec: no push channel configured", "id", id)
	} else if err := rt.Publisher.Publish(EventJavaScript, req); err != nil {
		logger.Warn("pyexec: publish javascript request failed", "id", id, "err", err)
	}

	poller := rt.Poller
	poller.Logger = logger
	result, ok := poller.Wait(ctx, p)
	if !ok {
		return &Response{Result: make([]any, len(sig))}
	}
	return &Response{Result: unpackBrowserResult(script.Normalize(result), sig)}
}

// browserNamespace keeps the namespace entries that survive JSON encoding.
func browserNamespace(ctx context.Context, ns *script.Namespace) map[string]any {
	logger := logging.FromContext(ctx)
	out := make(map[string]any, ns.Len())
	for _, name := range ns.Names() {
		v, _ := ns.Get(name)
		switch v.(type) {
		case *script.Globals, *graph.Builder:
			continue
		}
		if script.IsCallable(v) {
			continue
		}
		if _, err := json.Marshal(v); err != nil {
			logger.Debug("pyexec: dropping unserializable value", "name", name, "err", err)
			continue
		}
		out[name] = v
	}
	return out
}

// unpackBrowserResult turns the posted result into an output tuple. An
// array is used as-is; an object is read in declared output order followed
// by its remaining keys in sorted order; anything else is a one-tuple.
func unpackBrowserResult(result any, sig workflow.Signature) []any {
	switch v := result.(type) {
	case nil:
		return make([]any, len(sig))
	case []any:
		return v
	case map[string]any:
		out := make([]any, 0, len(v))
		seen := make(map[string]bool, len(sig))
		for _, name := range sig.Names() {
			out = append(out, v[name])
			seen[name] = true
		}
		for _, key := range workflow.SortedKeys(v) {
			if !seen[key] {
				out = append(out, v[key])
			}
		}
		return out
	default:
		return []any{v}
	}
}
