package nodes

import (
	"context"
	"fmt"

	"github.com/soochol/pyexec/internal/graph"
	"github.com/soochol/pyexec/internal/script"
	"github.com/soochol/pyexec/internal/workflow"
)

const (
	fixedCodeInput  = "py"
	argsCountInput  = "args_count"
	defaultFixedSrc = "r1=a1\nr2=a2+1\nr3=prompt\nr4=id\nr5=workflow\nr6=dynprompt\n"
)

// PyExec evaluates code with a fixed number of outputs r1..rN.
type PyExec struct {
	rt         *Runtime
	name       string
	slots      int
	outputNode bool
}

// NewPyExec returns a fixed-arity node registered as name.
func NewPyExec(rt *Runtime, name string, slots int, outputNode bool) *PyExec {
	return &PyExec{rt: rt, name: name, slots: slots, outputNode: outputNode}
}

func (n *PyExec) Descriptor() Descriptor {
	types := make([]string, n.slots)
	names := make([]string, n.slots)
	for i := range types {
		types[i] = AnyType
		names[i] = resultName(i)
	}
	return Descriptor{
		Name:        n.name,
		DisplayName: n.name,
		Description: fmt.Sprintf("Runs code with inputs a1..a%d and outputs r1..r%d.", n.slots, n.slots),
		Category:    Category,
		Input: InputTypes{
			Required: map[string]any{
				fixedCodeInput: []any{"STRING", map[string]any{"default": defaultFixedSrc, "multiline": true}},
				argsCountInput: []any{"INT", map[string]any{"default": 0, "min": 0, "max": n.slots, "step": 1}},
			},
			Hidden: hiddenInputs,
		},
		Output:       types,
		OutputName:   names,
		OutputIsList: make([]bool, n.slots),
		OutputNode:   n.outputNode,
		Function:     "doit",
	}
}

func (n *PyExec) Execute(ctx context.Context, inv *Invocation) (resp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = failure(ctx, n.name, inv.UniqueID, panicDiagnostic(r), n.slots)
			err = nil
		}
	}()

	code := inv.StringInput(fixedCodeInput)
	lang := inv.StringInput(LanguageInput)
	if lang == "" {
		lang = n.rt.DefaultLanguage
	}

	builder := graph.NewBuilder("")
	ns := script.NewNamespace()
	n.rt.bindRuntime(ns, builder)
	for _, name := range workflow.SortedKeys(inv.Inputs) {
		if name == fixedCodeInput || name == LanguageInput {
			continue
		}
		ns.Set(name, script.Normalize(inv.Inputs[name]))
	}
	n.rt.bindContext(ns, inv)
	for i := 0; i < n.slots; i++ {
		ns.Set(resultName(i), nil)
	}

	if err := n.rt.evaluate(ctx, lang, code, ns); err != nil {
		return failure(ctx, n.name, inv.UniqueID, diagnostic(err), n.slots), nil
	}

	result := make([]any, n.slots)
	for i := range result {
		v, _ := ns.Get(resultName(i))
		result[i] = outputValue(v)
	}
	return &Response{Result: result, Expand: builder.Finalize()}, nil
}

func resultName(i int) string { return fmt.Sprintf("r%d", i+1) }

// OutputIsList passes its input through on an output the host treats as a
// list, fanning the downstream node out over the elements.
type OutputIsList struct{}

func (OutputIsList) Descriptor() Descriptor {
	return Descriptor{
		Name:        "PyExec_OutputIsList",
		DisplayName: "PyExec_OutputIsList",
		Description: "Passes a value through as a list output.",
		Category:    Category,
		Input: InputTypes{
			Required: map[string]any{"value": []any{AnyType}},
		},
		Output:       []string{AnyType},
		OutputName:   []string{"list_value"},
		OutputIsList: []bool{true},
		Function:     "doit",
	}
}

func (OutputIsList) Execute(_ context.Context, inv *Invocation) (*Response, error) {
	v, ok := inv.Input("value")
	if !ok {
		return nil, fmt.Errorf("PyExec_OutputIsList: %w: value", ErrMissingInput)
	}
	return &Response{Result: []any{script.Normalize(v)}}, nil
}
