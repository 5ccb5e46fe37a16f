package nodes

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/soochol/pyexec/internal/bridge"
	"github.com/soochol/pyexec/internal/config"
	"github.com/soochol/pyexec/internal/graph"
	"github.com/soochol/pyexec/internal/logging"
	"github.com/soochol/pyexec/internal/push"
	"github.com/soochol/pyexec/internal/script"
)

// Runtime is the process-wide state shared by every node: the evaluators,
// the global storage, and the browser bridge.
type Runtime struct {
	Evaluators      *script.Registry
	Globals         *script.Globals
	Bridge          *bridge.Registry
	Publisher       push.Publisher
	Poller          bridge.Poller
	DefaultLanguage string
}

// NewRuntime builds a Runtime with the python, python3 and expr evaluators
// registered. pub may be nil, in which case javascript calls time out.
func NewRuntime(cfg *config.Config, pub push.Publisher) *Runtime {
	evals := script.NewRegistry()
	evals.Register(script.LangPython, script.NewStarlark())
	evals.Register(script.LangPython3, &script.Python{
		Binary:  cfg.Scripts.PythonBinary,
		Timeout: cfg.Scripts.PythonTimeout,
	})
	evals.Register(script.LangExpr, script.Expr{})

	return &Runtime{
		Evaluators: evals,
		Globals:    script.NewGlobals(),
		Bridge:     bridge.NewRegistry(),
		Publisher:  pub,
		Poller: bridge.Poller{
			Interval: cfg.Bridge.PollInterval,
			Attempts: cfg.Bridge.MaxAttempts,
		},
		DefaultLanguage: cfg.Scripts.DefaultLanguage,
	}
}

// bindContext adds the host-injected context values and the runtime
// bindings to ns.
func (rt *Runtime) bindContext(ns *script.Namespace, inv *Invocation) {
	ns.Set(NameID, inv.UniqueID)
	ns.Set(NamePrompt, inv.Prompt.AsMap())
	ns.Set(NameWorkflow, inv.Workflow.Raw())
	ns.Set(NameDynPrompt, inv.DynPrompt)
}

func (rt *Runtime) bindRuntime(ns *script.Namespace, b *graph.Builder) {
	ns.Set(NameGlobals, rt.Globals)
	ns.Set(NameGraph, b)
}

// evaluate runs code in lang against ns and logs what it printed.
func (rt *Runtime) evaluate(ctx context.Context, lang, code string, ns *script.Namespace) error {
	ev, err := rt.Evaluators.Get(lang)
	if err != nil {
		return err
	}
	stdout, err := ev.Evaluate(ctx, code, ns)
	logging.FromContext(ctx).Info("PyExec: " + strings.TrimRight(stdout, "\n"))
	return err
}

// diagnostic formats a failure: its message followed by the script-level
// trace when the evaluator produced one, else the Go stack.
func diagnostic(err error) string {
	trace := script.Backtrace(err)
	if trace == "" {
		trace = string(debug.Stack())
	}
	return fmt.Sprintf("Exception: %v\n%s", err, trace)
}

// failure reports err on every one of the node's output slots.
func failure(ctx context.Context, class, id string, msg string, slots int) *Response {
	logging.FromContext(ctx).Error("pyexec: evaluation failed", "class", class, "id", id, "diagnostic", msg)
	if slots < 1 {
		slots = 1
	}
	result := make([]any, slots)
	for i := range result {
		result[i] = msg
	}
	return &Response{Result: result}
}

// panicDiagnostic formats a recovered panic.
func panicDiagnostic(r any) string {
	return fmt.Sprintf("Exception: %v\n%s", r, debug.Stack())
}

// outputValue prepares a produced value for the host. Graph node handles
// become a reference to their first output.
func outputValue(v any) any {
	if n, ok := v.(*graph.Node); ok {
		return n.Out(0)
	}
	return v
}
