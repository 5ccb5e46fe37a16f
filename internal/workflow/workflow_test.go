package workflow

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleWorkflow = `{
  "workflow": {
    "nodes": [
      {"id": 3, "type": "PrimitiveNode", "outputs": [{"name": "INT", "type": "INT", "links": [4]}]},
      {"id": 7, "type": "DynamicGroupNode",
       "inputs": [{"name": "var1", "type": "STRING", "link": 4}],
       "outputs": [
         {"name": "a", "type": "INT"},
         {"name": "", "type": "STRING"},
         {"name": "b", "type": "*"},
         {"name": "c", "type": ""}
       ],
       "properties": {"pycode": "a = 1\nb = 2"}},
      {"id": "12:3", "type": "DynamicGroupNode", "outputs": [{"name": "x", "type": -1}]}
    ],
    "links": [[4, 3, 0, 7, 0, "INT"]]
  }
}`

func TestDecode_Envelope(t *testing.T) {
	wf, err := Decode([]byte(sampleWorkflow))
	require.NoError(t, err)
	require.Len(t, wf.Nodes, 3)
	assert.Equal(t, NodeID("7"), wf.Nodes[1].ID)
	assert.Equal(t, NodeID("12:3"), wf.Nodes[2].ID)
	assert.Equal(t, SocketType("-1"), wf.Nodes[2].Outputs[0].Type)

	raw, ok := wf.Raw().(map[string]any)
	require.True(t, ok)
	assert.Contains(t, raw, "workflow")
}

func TestDecode_BareGraph(t *testing.T) {
	wf, err := Decode([]byte(`{"nodes": [{"id": 1, "type": "PyExec"}]}`))
	require.NoError(t, err)
	require.Len(t, wf.Nodes, 1)
	assert.Equal(t, "PyExec", wf.Nodes[0].Type)
}

func TestDecode_Empty(t *testing.T) {
	wf, err := Decode(nil)
	require.NoError(t, err)
	assert.Nil(t, wf)

	_, err = Decode([]byte(`[1, 2]`))
	assert.Error(t, err)
}

func TestFindNode(t *testing.T) {
	wf, err := Decode([]byte(sampleWorkflow))
	require.NoError(t, err)

	node, err := wf.FindNode("7")
	require.NoError(t, err)
	assert.Equal(t, "a = 1\nb = 2", node.StringProperty("pycode"))

	node, err = wf.FindNode("12:3")
	require.NoError(t, err)
	assert.Equal(t, "DynamicGroupNode", node.Type)

	_, err = wf.FindNode("99")
	assert.True(t, errors.Is(err, ErrNodeNotFound))

	var nilWF *Workflow
	_, err = nilWF.FindNode("7")
	assert.True(t, errors.Is(err, ErrNodeNotFound))
}

func TestNodeID_MarshalJSON(t *testing.T) {
	data, err := json.Marshal([]NodeID{"7", "12:3"})
	require.NoError(t, err)
	assert.JSONEq(t, `[7, "12:3"]`, string(data))
	assert.True(t, NodeID("007").Matches("7"))
	assert.False(t, NodeID("7").Matches("8"))
}

func TestResolveSignature_SkipsInvalidSockets(t *testing.T) {
	wf, err := Decode([]byte(sampleWorkflow))
	require.NoError(t, err)

	sig, node, err := ResolveSignature(wf, "7")
	require.NoError(t, err)
	assert.Equal(t, "DynamicGroupNode", node.Type)
	assert.Equal(t, Signature{{Name: "a", Type: "INT"}, {Name: "b", Type: "*"}}, sig)
	assert.Equal(t, []string{"a", "b"}, sig.Names())
	assert.Equal(t, []string{"INT", "*"}, sig.Types())
	assert.Equal(t, 2, sig.Slots())
}

func TestResolveSignature_PerSnapshot(t *testing.T) {
	first, err := Decode([]byte(`{"nodes": [{"id": 5, "outputs": [{"name": "a", "type": "INT"}, {"name": "b", "type": "INT"}]}]}`))
	require.NoError(t, err)
	second, err := Decode([]byte(`{"nodes": [{"id": 5, "outputs": [{"name": "z", "type": "STRING"}]}]}`))
	require.NoError(t, err)

	sig, _, err := ResolveSignature(first, "5")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, sig.Names())

	sig, _, err = ResolveSignature(second, "5")
	require.NoError(t, err)
	assert.Equal(t, []string{"z"}, sig.Names())
}

func TestSignature_FromOutputsProperty(t *testing.T) {
	node := &Node{ID: "1", Properties: map[string]any{"outputs": "out1: string\nout2\n\nout1: INT"}}
	assert.Equal(t, Signature{{Name: "out1", Type: "STRING"}, {Name: "out2", Type: "*"}}, node.Signature())
}

func TestSignature_EmptySlots(t *testing.T) {
	var sig Signature
	assert.Equal(t, 1, sig.Slots())
}

func TestParseSockets(t *testing.T) {
	sig := ParseSockets("var1: STRING\n  var2 : int \nvar3", "*")
	assert.Equal(t, Signature{
		{Name: "var1", Type: "STRING"},
		{Name: "var2", Type: "INT"},
		{Name: "var3", Type: "*"},
	}, sig)
}

func TestPrompt_Widgets(t *testing.T) {
	var p Prompt
	require.NoError(t, json.Unmarshal([]byte(`{
	  "7": {"class_type": "DynamicGroupNode", "inputs": {
	    "pycode": "a = 1", "MyAge": 30, "Name": "John", "var1": ["3", 0]
	  }}
	}`), &p))

	widgets := p.Widgets("7", "pycode")
	assert.Equal(t, map[string]any{"MyAge": float64(30), "Name": "John"}, widgets)
	assert.Empty(t, p.Widgets("8"))
	assert.Equal(t, []string{"MyAge", "Name"}, SortedKeys(widgets))

	m := p.AsMap()
	node := m["7"].(map[string]any)
	assert.Equal(t, "DynamicGroupNode", node["class_type"])
}
