package script

import (
	"context"
	"fmt"
	"strings"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Filename is the name scripts carry in traces.
const Filename = "<pycode>"

// Starlark evaluates the embedded python dialect. Namespace entries are
// predeclared; top-level assignments become module globals and are written
// back in first-assignment order.
type Starlark struct {
	Options *syntax.FileOptions
}

// NewStarlark returns an evaluator that allows top-level control flow,
// global reassignment, while loops, sets and recursion.
func NewStarlark() *Starlark {
	return &Starlark{Options: &syntax.FileOptions{
		Set:             true,
		While:           true,
		TopLevelControl: true,
		GlobalReassign:  true,
		Recursion:       true,
	}}
}

func (s *Starlark) Evaluate(ctx context.Context, code string, ns *Namespace) (string, error) {
	predeclared := make(starlark.StringDict, ns.Len())
	for _, name := range ns.Names() {
		v, _ := ns.Get(name)
		sv, err := toStarlark(v)
		if err != nil {
			return "", fmt.Errorf("bind %s: %w", name, err)
		}
		predeclared[name] = sv
	}

	var stdout strings.Builder
	thread := &starlark.Thread{
		Name: "pyexec",
		Print: func(_ *starlark.Thread, msg string) {
			stdout.WriteString(msg)
			stdout.WriteByte('\n')
		},
	}
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	defer stop()

	opts := s.Options
	if opts == nil {
		opts = NewStarlark().Options
	}
	file, prog, err := starlark.SourceProgramOptions(opts, Filename, code, predeclared.Has)
	if err != nil {
		return "", err
	}
	globals, err := prog.Init(thread, predeclared)
	if err != nil {
		return stdout.String(), err
	}
	for _, name := range globalNames(file) {
		if v, ok := globals[name]; ok {
			ns.Set(name, fromStarlark(v))
		}
	}
	return stdout.String(), nil
}

// globalNames lists the file's module globals in order of first binding.
func globalNames(f *syntax.File) []string {
	mod, ok := f.Module.(*resolve.Module)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(mod.Globals))
	for _, b := range mod.Globals {
		if b.First != nil {
			names = append(names, b.First.Name)
		}
	}
	return names
}
