// Package script evaluates user-authored code against a namespace of bound
// variables and returns the namespace as the script left it.
package script

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Languages understood by the node runtime.
const (
	LangPython     = "python"     // embedded python dialect (Starlark)
	LangPython3    = "python3"    // external CPython interpreter
	LangExpr       = "expr"       // expr-lang assignments
	LangJavaScript = "javascript" // evaluated by the connected browser
)

// ErrUnknownLanguage is returned by Registry.Get for unregistered languages.
var ErrUnknownLanguage = errors.New("unknown script language")

// Evaluator runs code against ns. Values assigned by the code are written
// back into ns in the order the code first bound them. The returned string
// is whatever the code printed.
type Evaluator interface {
	Evaluate(ctx context.Context, code string, ns *Namespace) (string, error)
}

// Registry maps language names to evaluators.
type Registry struct {
	mu    sync.RWMutex
	langs map[string]Evaluator
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{langs: make(map[string]Evaluator)}
}

// Register adds or replaces the evaluator for lang.
func (r *Registry) Register(lang string, ev Evaluator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.langs[lang] = ev
}

// Get returns the evaluator for lang.
func (r *Registry) Get(lang string) (Evaluator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ev, ok := r.langs[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
	}
	return ev, nil
}

// Languages returns the registered language names, sorted.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.langs))
	for lang := range r.langs {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// Function is an executable value left in a namespace by a script.
type Function struct {
	Name string
	impl any
}

func (f Function) String() string { return "<function " + f.Name + ">" }

// IsCallable reports whether v is executable.
func IsCallable(v any) bool {
	switch v.(type) {
	case nil:
		return false
	case Function, *Function:
		return true
	}
	return reflect.ValueOf(v).Kind() == reflect.Func
}

// Backtrace returns the script-level trace carried by err, if any.
func Backtrace(err error) string {
	var bt interface{ Backtrace() string }
	if errors.As(err, &bt) {
		return bt.Backtrace()
	}
	return ""
}
