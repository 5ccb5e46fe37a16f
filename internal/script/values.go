package script

import (
	"fmt"

	"github.com/soochol/pyexec/internal/graph"
	"go.starlark.net/starlark"
)

// globalsValue exposes *Globals to Starlark with attribute access:
// gs.counter = gs.counter + 1.
type globalsValue struct{ g *Globals }

var (
	_ starlark.HasAttrs    = (*globalsValue)(nil)
	_ starlark.HasSetField = (*globalsValue)(nil)
)

func (v *globalsValue) String() string        { return "<GlobalStorage>" }
func (v *globalsValue) Type() string          { return "GlobalStorage" }
func (v *globalsValue) Freeze()               {}
func (v *globalsValue) Truth() starlark.Bool  { return starlark.True }
func (v *globalsValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: GlobalStorage") }
func (v *globalsValue) AttrNames() []string   { return v.g.Keys() }

func (v *globalsValue) Attr(name string) (starlark.Value, error) {
	val, ok := v.g.Get(name)
	if !ok {
		return nil, nil
	}
	return toStarlark(val)
}

// SetField stores a plain Go copy of val. Reads hand back a fresh Starlark
// value, so scripts running concurrently never share a mutable value.
func (v *globalsValue) SetField(name string, val starlark.Value) error {
	v.g.Set(name, fromStarlark(val))
	return nil
}

// builderValue exposes *graph.Builder as "graph".
type builderValue struct{ b *graph.Builder }

var _ starlark.HasAttrs = (*builderValue)(nil)

func (v *builderValue) String() string        { return fmt.Sprintf("<GraphBuilder %s>", v.b.Prefix()) }
func (v *builderValue) Type() string          { return "GraphBuilder" }
func (v *builderValue) Freeze()               {}
func (v *builderValue) Truth() starlark.Bool  { return starlark.True }
func (v *builderValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: GraphBuilder") }

func (v *builderValue) AttrNames() []string {
	return []string{"finalize", "lookup_node", "node", "prefix"}
}

func (v *builderValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "prefix":
		return starlark.String(v.b.Prefix()), nil
	case "node":
		return starlark.NewBuiltin("node", v.node), nil
	case "lookup_node":
		return starlark.NewBuiltin("lookup_node", func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var id string
			if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &id); err != nil {
				return nil, err
			}
			n, ok := v.b.Lookup(id)
			if !ok {
				return starlark.None, nil
			}
			return &nodeValue{n: n}, nil
		}), nil
	case "finalize":
		return starlark.NewBuiltin("finalize", func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 0); err != nil {
				return nil, err
			}
			return toStarlark(v.b.Finalize())
		}), nil
	}
	return nil, nil
}

// node(class_type, id=None, **inputs)
func (v *builderValue) node(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("%s: got %d positional arguments, want class_type and optional id", fn.Name(), len(args))
	}
	classType, ok := starlark.AsString(args[0])
	if !ok {
		return nil, fmt.Errorf("%s: class_type must be a string, got %s", fn.Name(), args[0].Type())
	}
	var id string
	if len(args) == 2 {
		id = idString(args[1])
	}
	inputs := make(map[string]any, len(kwargs))
	for _, kv := range kwargs {
		key, _ := starlark.AsString(kv[0])
		if key == "id" {
			id = idString(kv[1])
			continue
		}
		if nv, ok := kv[1].(*nodeValue); ok {
			inputs[key] = nv.n.Out(0)
			continue
		}
		inputs[key] = fromStarlark(kv[1])
	}
	return &nodeValue{n: v.b.Node(classType, id, inputs)}, nil
}

func idString(v starlark.Value) string {
	if v == starlark.None {
		return ""
	}
	if s, ok := starlark.AsString(v); ok {
		return s
	}
	return v.String()
}

// nodeValue exposes a *graph.Node returned by graph.node().
type nodeValue struct{ n *graph.Node }

var _ starlark.HasAttrs = (*nodeValue)(nil)

func (v *nodeValue) String() string        { return fmt.Sprintf("<Node %s %s>", v.n.ID, v.n.ClassType) }
func (v *nodeValue) Type() string          { return "Node" }
func (v *nodeValue) Freeze()               {}
func (v *nodeValue) Truth() starlark.Bool  { return starlark.True }
func (v *nodeValue) Hash() (uint32, error) { return starlark.String(v.n.ID).Hash() }

func (v *nodeValue) AttrNames() []string {
	return []string{"class_type", "get_input", "id", "out", "set_input"}
}

func (v *nodeValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "id":
		return starlark.String(v.n.ID), nil
	case "class_type":
		return starlark.String(v.n.ClassType), nil
	case "out":
		return starlark.NewBuiltin("out", func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var index int
			if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &index); err != nil {
				return nil, err
			}
			return toStarlark(v.n.Out(index))
		}), nil
	case "set_input":
		return starlark.NewBuiltin("set_input", func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var key string
			var value starlark.Value
			if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 2, &key, &value); err != nil {
				return nil, err
			}
			if nv, ok := value.(*nodeValue); ok {
				v.n.SetInput(key, nv.n.Out(0))
			} else {
				v.n.SetInput(key, fromStarlark(value))
			}
			return starlark.None, nil
		}), nil
	case "get_input":
		return starlark.NewBuiltin("get_input", func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var key string
			if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &key); err != nil {
				return nil, err
			}
			return toStarlark(v.n.Inputs[key])
		}), nil
	}
	return nil, nil
}
