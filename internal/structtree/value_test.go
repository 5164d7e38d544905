package structtree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAny_ShapesAndKeyOrder(t *testing.T) {
	v, err := FromAny(map[string]any{
		"zeta":  json.Number("1"),
		"alpha": []any{"a", nil},
		"flag":  true,
	})
	require.NoError(t, err)
	require.Equal(t, KindMapping, v.Kind())

	// Map keys come out sorted, not in Go map iteration order.
	assert.Equal(t, []string{"alpha", "flag", "zeta"}, v.Keys())

	seq, ok := v.Field("alpha")
	require.True(t, ok)
	require.Equal(t, KindSequence, seq.Kind())
	require.Len(t, seq.Items(), 2)
	assert.Equal(t, KindScalar, seq.Items()[0].Kind())
	assert.True(t, seq.Items()[1].IsNull())
}

func TestFromAny_RejectsUnrepresentable(t *testing.T) {
	_, err := FromAny(map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ch")
}

func TestValue_FieldOnNonMapping(t *testing.T) {
	v := Scalar("x")
	got, ok := v.Field("anything")
	assert.False(t, ok)
	assert.True(t, got.IsNull())
}

func TestValue_InterfaceNumbers(t *testing.T) {
	assert.Equal(t, int64(42), Scalar(json.Number("42")).Interface())
	assert.Equal(t, 4.5, Scalar(json.Number("4.5")).Interface())
	assert.Equal(t, "loud", Scalar("loud").Interface())
	assert.Nil(t, Null().Interface())
}

func TestValue_InterfaceRoundTrip(t *testing.T) {
	in := map[string]any{
		"n":     json.Number("3"),
		"items": []any{json.Number("1.5"), "s"},
	}
	v, err := FromAny(in)
	require.NoError(t, err)

	out, ok := v.Interface().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(3), out["n"])
	assert.Equal(t, []any{1.5, "s"}, out["items"])
}

func TestValue_NativeTypeName(t *testing.T) {
	cases := []struct {
		scalar any
		want   string
	}{
		{true, "bool"},
		{"s", "string"},
		{int64(3), "int64"},
		{3.5, "float64"},
		{json.Number("12"), "int64"},
		{json.Number("1.2"), "float64"},
		{json.Number("1e3"), "float64"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Scalar(tc.scalar).NativeTypeName(), "scalar %v", tc.scalar)
	}
}

func TestNodeAt_And_InfoAt(t *testing.T) {
	inner := NewNode(&CollectedInfo{InfoType: InfoValue, Type: TypeObject})
	inner.Put("x", leaf(TypeFloat))
	tree := treeWith(map[string]*Node{"o": inner}, "o")

	n, err := tree.NodeAt("o -> x", " -> ")
	require.NoError(t, err)
	assert.Equal(t, TypeFloat, n.Info.Type)

	info, err := tree.InfoAt("o", " -> ")
	require.NoError(t, err)
	assert.Equal(t, TypeObject, info.Type)

	_, err = tree.NodeAt("o -> missing", " -> ")
	assert.Error(t, err)
}

func TestSetAt(t *testing.T) {
	inner := NewNode(&CollectedInfo{InfoType: InfoValue, Type: TypeObject})
	tree := treeWith(map[string]*Node{"o": inner}, "o")

	require.NoError(t, tree.SetAt("o -> y", " -> ", leaf(TypeString)))
	n, err := tree.NodeAt("o -> y", " -> ")
	require.NoError(t, err)
	assert.Equal(t, TypeString, n.Info.Type)

	// Intermediate segments are not created implicitly.
	assert.Error(t, tree.SetAt("missing -> y", " -> ", leaf(TypeString)))
}
