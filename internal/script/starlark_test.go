package script

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/soochol/pyexec/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

func TestStarlark_AssignsResult(t *testing.T) {
	ns := NewNamespace()
	ns.Set("x", int64(20))
	ns.Set("result", "The result variable is not assigned")

	_, err := NewStarlark().Evaluate(context.Background(), "result = x * 2 + 2", ns)
	require.NoError(t, err)

	v, ok := ns.Get("result")
	require.True(t, ok)
	assert.Equal(t, int64(42), v)
	assert.Equal(t, []string{"x", "result"}, ns.Names())
}

func TestStarlark_PreseededNamesKeepOrder(t *testing.T) {
	ns := NewNamespace()
	ns.Set("a", nil)
	ns.Set("b", nil)
	ns.Set("unused", nil)

	_, err := NewStarlark().Evaluate(context.Background(), "tmp = 5\nb = 2\na = 1", ns)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "unused", "tmp"}, ns.Names())
	a, _ := ns.Get("a")
	b, _ := ns.Get("b")
	unused, _ := ns.Get("unused")
	assert.Equal(t, int64(1), a)
	assert.Equal(t, int64(2), b)
	assert.Nil(t, unused)
}

func TestStarlark_TopLevelControlAndReassign(t *testing.T) {
	ns := NewNamespace()
	ns.Set("items", []any{int64(1), int64(2), int64(3)})
	code := `
total = 0
for i in items:
    total = total + i
if total > 5:
    label = "big"
else:
    label = "small"
`
	_, err := NewStarlark().Evaluate(context.Background(), code, ns)
	require.NoError(t, err)
	total, _ := ns.Get("total")
	label, _ := ns.Get("label")
	assert.Equal(t, int64(6), total)
	assert.Equal(t, "big", label)
}

func TestStarlark_RuntimeFault(t *testing.T) {
	ns := NewNamespace()
	_, err := NewStarlark().Evaluate(context.Background(), "def f():\n    return 1 // 0\nx = f()", ns)
	require.Error(t, err)

	var evalErr *starlark.EvalError
	require.True(t, errors.As(err, &evalErr))
	assert.Contains(t, err.Error(), "division by zero")
	assert.Contains(t, Backtrace(err), Filename)
	assert.False(t, ns.Has("x"))
}

func TestStarlark_SyntaxError(t *testing.T) {
	_, err := NewStarlark().Evaluate(context.Background(), "a = (", NewNamespace())
	require.Error(t, err)
	assert.Empty(t, Backtrace(err))
}

func TestStarlark_CapturesPrint(t *testing.T) {
	out, err := NewStarlark().Evaluate(context.Background(), `print("hello", 1)`, NewNamespace())
	require.NoError(t, err)
	assert.Equal(t, "hello 1\n", out)
}

func TestStarlark_FunctionsAreCallable(t *testing.T) {
	ns := NewNamespace()
	_, err := NewStarlark().Evaluate(context.Background(), "def helper(v):\n    return v\nresult = helper(3)", ns)
	require.NoError(t, err)

	fn, ok := ns.Get("helper")
	require.True(t, ok)
	assert.True(t, IsCallable(fn))
	result, _ := ns.Get("result")
	assert.False(t, IsCallable(result))
}

func TestStarlark_GlobalStoragePersists(t *testing.T) {
	gs := NewGlobals()
	ev := NewStarlark()
	code := `
if hasattr(gs, "count"):
    gs.count = gs.count + 1
else:
    gs.count = 1
gs.seen = (gs.seen if hasattr(gs, "seen") else []) + [gs.count]
result = gs.count
`
	for i := 1; i <= 3; i++ {
		ns := NewNamespace()
		ns.Set("gs", gs)
		_, err := ev.Evaluate(context.Background(), code, ns)
		require.NoError(t, err)
		result, _ := ns.Get("result")
		assert.Equal(t, int64(i), result)
		gsBack, _ := ns.Get("gs")
		assert.Same(t, gs, gsBack)
	}
	assert.Equal(t, int64(3), gs.Value("count"))
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, gs.Value("seen"))
	assert.Equal(t, []string{"count", "seen"}, gs.Keys())
}

func TestStarlark_GlobalStorageHoldsCopies(t *testing.T) {
	gs := NewGlobals()
	ns := NewNamespace()
	ns.Set("gs", gs)
	code := `
gs.items = [1, 2]
x = gs.items
x.append(3)
y = gs.items
`
	_, err := NewStarlark().Evaluate(context.Background(), code, ns)
	require.NoError(t, err)

	y, _ := ns.Get("y")
	assert.Equal(t, []any{int64(1), int64(2)}, y)
	stored, ok := gs.Get("items")
	require.True(t, ok)
	_, isStarlark := stored.(starlark.Value)
	assert.False(t, isStarlark)
	assert.Equal(t, []any{int64(1), int64(2)}, stored)
}

func TestStarlark_GlobalStorageConcurrentMutation(t *testing.T) {
	gs := NewGlobals()
	gs.Set("items", []any{int64(1), int64(2)})
	ev := NewStarlark()
	code := "l = gs.items\nl.append(3)\nresult = len(l)"

	var wg sync.WaitGroup
	results := make([]any, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ns := NewNamespace()
			ns.Set("gs", gs)
			_, errs[i] = ev.Evaluate(context.Background(), code, ns)
			results[i], _ = ns.Get("result")
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, int64(3), results[i])
	}
	assert.Equal(t, []any{int64(1), int64(2)}, gs.Value("items"))
}

func TestStarlark_MissingGlobalIsError(t *testing.T) {
	ns := NewNamespace()
	ns.Set("gs", NewGlobals())
	_, err := NewStarlark().Evaluate(context.Background(), "x = gs.nothing", ns)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing")
}

func TestStarlark_GraphBuilder(t *testing.T) {
	b := graph.NewBuilder("t.")
	ns := NewNamespace()
	ns.Set("graph", b)
	code := `
enc = graph.node("CLIPTextEncode", text="a cat")
s = graph.node("KSampler", "sampler", positive=enc, seed=7)
s.set_input("steps", 20)
link = enc.out(0)
same = graph.lookup_node("sampler").id
missing = graph.lookup_node("t.sampler")
`
	_, err := NewStarlark().Evaluate(context.Background(), code, ns)
	require.NoError(t, err)

	link, _ := ns.Get("link")
	assert.Equal(t, []any{"t.1", int64(0)}, link)
	same, _ := ns.Get("same")
	assert.Equal(t, "t.sampler", same)
	missing, _ := ns.Get("missing")
	assert.Nil(t, missing)

	out := b.Finalize()
	require.Len(t, out, 2)
	sampler := out["t.sampler"].(map[string]any)
	assert.Equal(t, "KSampler", sampler["class_type"])
	assert.Equal(t, map[string]any{
		"positive": []any{"t.1", 0},
		"seed":     int64(7),
		"steps":    int64(20),
	}, sampler["inputs"])
}

func TestStarlark_ConvertsNestedInputs(t *testing.T) {
	ns := NewNamespace()
	ns.Set("data", map[string]any{"list": []any{int64(1), "two", 3.5, true, nil}})
	_, err := NewStarlark().Evaluate(context.Background(), `out = {"n": len(data["list"]), "first": data["list"][1]}`, ns)
	require.NoError(t, err)
	out, _ := ns.Get("out")
	assert.Equal(t, map[string]any{"n": int64(5), "first": "two"}, out)
}

func TestStarlark_Cancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := NewStarlark().Evaluate(ctx, "while True:\n    pass", NewNamespace())
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("evaluation was not cancelled")
	}
}
