package nodes

import (
	"context"

	"github.com/soochol/pyexec/internal/graph"
	"github.com/soochol/pyexec/internal/script"
	"github.com/soochol/pyexec/internal/workflow"
)

// Input and property names read by the dynamic node.
const (
	CodeInput     = "pycode"
	LanguageInput = "language"
)

// ResultPlaceholder is bound to "result" when the node declares no outputs.
const ResultPlaceholder = "The result variable is not assigned"

// DynamicGroupNode evaluates code whose output names and types are read
// from the workflow on every call.
type DynamicGroupNode struct {
	rt *Runtime
}

func NewDynamicGroupNode(rt *Runtime) *DynamicGroupNode {
	return &DynamicGroupNode{rt: rt}
}

func (n *DynamicGroupNode) Descriptor() Descriptor {
	return Descriptor{
		Name:        "DynamicGroupNode",
		DisplayName: "Dynamic Group Node",
		Description: "Runs code with outputs declared on the node itself.",
		Category:    Category,
		Input: InputTypes{
			Required: map[string]any{},
			Optional: map[string]any{},
			Hidden:   hiddenInputs,
		},
		Output:       []string{AnyType},
		OutputName:   []string{"result"},
		OutputIsList: []bool{false},
		Function:     "doit",
	}
}

func (n *DynamicGroupNode) Execute(ctx context.Context, inv *Invocation) (resp *Response, err error) {
	var sig workflow.Signature
	defer func() {
		if r := recover(); r != nil {
			resp = failure(ctx, "DynamicGroupNode", inv.UniqueID, panicDiagnostic(r), sig.Slots())
			err = nil
		}
	}()

	var node *workflow.Node
	if inv.Workflow != nil {
		sig, node, err = workflow.ResolveSignature(inv.Workflow, inv.UniqueID)
		if err != nil {
			return failure(ctx, "DynamicGroupNode", inv.UniqueID, diagnostic(err), sig.Slots()), nil
		}
	}

	code := inv.StringInput(CodeInput)
	if code == "" {
		code = node.StringProperty(CodeInput)
	}
	lang := inv.StringInput(LanguageInput)
	if lang == "" {
		lang = node.StringProperty(LanguageInput)
	}
	if lang == "" {
		lang = n.rt.DefaultLanguage
	}

	ns, excluded := n.namespace(inv, sig)
	builder := graph.NewBuilder("")
	n.rt.bindRuntime(ns, builder)

	if lang == script.LangJavaScript {
		return n.rt.evaluateInBrowser(ctx, inv.UniqueID, code, ns, sig), nil
	}

	if err := n.rt.evaluate(ctx, lang, code, ns); err != nil {
		return failure(ctx, "DynamicGroupNode", inv.UniqueID, diagnostic(err), sig.Slots()), nil
	}

	return &Response{
		Result: produced(ns, sig, excluded),
		Expand: builder.Finalize(),
	}, nil
}

// namespace binds, in order: the declared outputs (unassigned), the node's
// widget values, the inputs, the host context and the "result" placeholder
// when no outputs are declared. It returns the names that are not
// produced values.
func (n *DynamicGroupNode) namespace(inv *Invocation, sig workflow.Signature) (*script.Namespace, map[string]bool) {
	ns := script.NewNamespace()
	excluded := map[string]bool{CodeInput: true, LanguageInput: true}

	for _, name := range sig.Names() {
		ns.Set(name, nil)
	}

	widgets := inv.Prompt.Widgets(inv.UniqueID, CodeInput, LanguageInput)
	for _, name := range workflow.SortedKeys(widgets) {
		ns.Set(name, widgets[name])
		excluded[name] = true
	}
	for _, name := range workflow.SortedKeys(inv.Inputs) {
		excluded[name] = true
		if name == CodeInput || name == LanguageInput {
			continue
		}
		ns.Set(name, script.Normalize(inv.Inputs[name]))
	}
	n.rt.bindContext(ns, inv)

	if len(sig) == 0 {
		ns.SetDefault("result", ResultPlaceholder)
	}
	return ns, excluded
}

// produced collects the values the code left in ns, in discovery order.
// Declared outputs always count; other names count unless they are
// inputs, widgets, reserved names or executable.
func produced(ns *script.Namespace, sig workflow.Signature, excluded map[string]bool) []any {
	declared := make(map[string]bool, len(sig))
	for _, name := range sig.Names() {
		declared[name] = true
	}

	result := []any{}
	for _, name := range ns.Names() {
		if reserved[name] {
			continue
		}
		v, _ := ns.Get(name)
		if !declared[name] && (excluded[name] || script.IsCallable(v)) {
			continue
		}
		result = append(result, outputValue(v))
	}
	return result
}
