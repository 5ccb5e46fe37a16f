package script

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespace_Order(t *testing.T) {
	ns := NewNamespace()
	ns.Set("b", 1)
	ns.Set("a", 2)
	ns.Set("b", 3)
	assert.False(t, ns.SetDefault("a", 9))
	assert.True(t, ns.SetDefault("c", 4))

	assert.Equal(t, []string{"b", "a", "c"}, ns.Names())
	assert.Equal(t, map[string]any{"a": 2, "b": 3, "c": 4}, ns.Map())
	assert.Equal(t, 3, ns.Len())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(LangExpr, Expr{})
	r.Register(LangPython, NewStarlark())

	ev, err := r.Get(LangExpr)
	require.NoError(t, err)
	_, err = ev.Evaluate(context.Background(), "1 + 1", NewNamespace())
	require.NoError(t, err)

	_, err = r.Get("cobol")
	assert.True(t, errors.Is(err, ErrUnknownLanguage))
	assert.Equal(t, []string{"expr", "python"}, r.Languages())
}

func TestIsCallable(t *testing.T) {
	assert.True(t, IsCallable(func() {}))
	assert.True(t, IsCallable(Function{Name: "f"}))
	assert.False(t, IsCallable(nil))
	assert.False(t, IsCallable("text"))
}

func TestNormalize(t *testing.T) {
	got := Normalize(map[string]any{"i": json.Number("3"), "f": json.Number("1.5"), "l": []any{json.Number("2")}})
	assert.Equal(t, map[string]any{"i": int64(3), "f": 1.5, "l": []any{int64(2)}}, got)
}
