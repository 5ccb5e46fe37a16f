package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_SequentialIDs(t *testing.T) {
	b := NewBuilder("p.")
	first := b.Node("CLIPTextEncode", "", map[string]any{"text": "a cat"})
	second := b.Node("KSampler", "", map[string]any{"positive": first.Out(0), "seed": 1})

	assert.Equal(t, "p.1", first.ID)
	assert.Equal(t, "p.2", second.ID)
	assert.Equal(t, []any{"p.1", 0}, second.Inputs["positive"])

	out := b.Finalize()
	require.Len(t, out, 2)
	assert.Equal(t, map[string]any{
		"class_type": "CLIPTextEncode",
		"inputs":     map[string]any{"text": "a cat"},
	}, out["p.1"])
}

func TestBuilder_ExplicitIDReturnsExisting(t *testing.T) {
	b := NewBuilder("x.")
	a := b.Node("A", "loader", nil)
	again := b.Node("B", "loader", nil)
	assert.Same(t, a, again)
	assert.Equal(t, "A", again.ClassType)
	assert.Equal(t, 1, b.Len())

	n, ok := b.Lookup("loader")
	require.True(t, ok)
	assert.Same(t, a, n)

	_, ok = b.Lookup("x.loader")
	assert.False(t, ok)
}

func TestBuilder_GeneratedPrefix(t *testing.T) {
	a, b := NewBuilder(""), NewBuilder("")
	assert.True(t, strings.HasSuffix(a.Prefix(), "."))
	assert.NotEqual(t, a.Prefix(), b.Prefix())
}

func TestNode_SetInputNilRemoves(t *testing.T) {
	b := NewBuilder("p.")
	n := b.Node("A", "", map[string]any{"keep": 1, "drop": nil})
	assert.Equal(t, map[string]any{"keep": 1}, n.Inputs)
	n.SetInput("keep", nil)
	assert.Empty(t, n.Serialize()["inputs"])
}
