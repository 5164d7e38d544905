package structtree

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_PutPreservesOrder(t *testing.T) {
	n := &Node{}
	n.Put("zulu", NewNode(nil))
	n.Put("alpha", NewNode(nil))
	n.Put("mike", NewNode(nil))
	assert.Equal(t, []string{"zulu", "alpha", "mike"}, n.Names())

	// Replacing keeps the original position.
	n.Put("alpha", leaf(TypeString))
	assert.Equal(t, []string{"zulu", "alpha", "mike"}, n.Names())
	assert.Equal(t, 3, n.Len())
}

func TestTree_CloneIsDeep(t *testing.T) {
	tree := treeWith(map[string]*Node{"a": leaf(TypeInteger)}, "a")
	cp := tree.Clone()

	node, _ := cp.Root.Field("a")
	node.Info.Type = TypeString
	cp.Root.Put("b", leaf(TypeFloat))

	orig, _ := tree.Root.Field("a")
	assert.Equal(t, TypeInteger, orig.Info.Type)
	_, ok := tree.Root.Field("b")
	assert.False(t, ok)
}

func TestTree_WalkDepthFirst(t *testing.T) {
	inner := NewNode(&CollectedInfo{InfoType: InfoValue, Type: TypeObject})
	inner.Put("x", leaf(TypeFloat))
	tree := treeWith(map[string]*Node{"a": leaf(TypeInteger), "o": inner}, "a", "o")

	var visited []string
	tree.Walk(func(segs []string, n *Node) bool {
		visited = append(visited, strings.Join(segs, "/"))
		return true
	})
	assert.Equal(t, []string{"a", "o", "o/x"}, visited)
}

func TestTree_WalkStopDescent(t *testing.T) {
	inner := NewNode(&CollectedInfo{InfoType: InfoValue, Type: TypeObject})
	inner.Put("x", leaf(TypeFloat))
	tree := treeWith(map[string]*Node{"o": inner}, "o")

	var visited []string
	tree.Walk(func(segs []string, n *Node) bool {
		visited = append(visited, strings.Join(segs, "/"))
		return false
	})
	assert.Equal(t, []string{"o"}, visited)
}

func TestTree_MarshalOrderedWithInfoKey(t *testing.T) {
	inner := NewNode(&CollectedInfo{InfoType: InfoValue, Type: TypeObject, Required: true})
	inner.Put("id", NewNode(&CollectedInfo{InfoType: InfoValue, Type: TypeInteger, Aliases: []string{"id"}}))
	tree := treeWith(map[string]*Node{"zeta": leaf(TypeString), "entry": inner}, "zeta", "entry")

	data, err := json.Marshal(tree)
	require.NoError(t, err)
	out := string(data)

	// Insertion order survives serialization.
	assert.Less(t, strings.Index(out, `"zeta"`), strings.Index(out, `"entry"`))
	// Children precede the metadata record within a node.
	entryStart := strings.Index(out, `"entry"`)
	entryBody := out[entryStart:]
	assert.Less(t, strings.Index(entryBody, `"id"`), strings.Index(entryBody, InfoKey))
	assert.Contains(t, out, `"occurence":true`)
}

func TestTree_MarshalIgnoredAsNull(t *testing.T) {
	tree := treeWith(map[string]*Node{
		"skip": NewNode(&CollectedInfo{InfoType: InfoIgnored, Type: TypeString}),
	}, "skip")

	data, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"collected_info_type":null`)
}

func TestTree_JSONRoundTrip(t *testing.T) {
	inner := NewNode(&CollectedInfo{
		Annotation: "line items",
		Aliases:    []string{"items", "Items"},
		InfoType:   InfoValue,
		Type:       TypeObject,
		Required:   true,
	})
	inner.Put("qty", NewNode(&CollectedInfo{InfoType: InfoValue, Type: TypeInteger}))
	inner.Put("seen", NewNode(&CollectedInfo{InfoType: InfoExistence, Type: TypeBoolean}))
	tree := treeWith(map[string]*Node{"order": inner}, "order")
	require.NoError(t, tree.FillRoutes(DefaultDelimiter))

	data, err := json.Marshal(tree)
	require.NoError(t, err)

	var back Tree
	require.NoError(t, json.Unmarshal(data, &back))

	order, ok := back.Root.Field("order")
	require.True(t, ok)
	assert.Equal(t, []string{"qty", "seen"}, order.Names())
	assert.Equal(t, "line items", order.Info.Annotation)
	assert.Equal(t, []string{"items", "Items"}, order.Info.Aliases)
	assert.True(t, order.Info.Required)

	seen, _ := order.Field("seen")
	assert.Equal(t, InfoExistence, seen.Info.InfoType)
	assert.Equal(t, "order -> seen", seen.Info.Path)
}

func TestTree_UnmarshalRejectsUnknownInfoType(t *testing.T) {
	raw := `{"f":{"@collected_info":{"annotation":"","aliases":[],"collected_info_type":"Z","type":"String","occurence":false,"external_id":false,"path":"","mapping":""}}}`
	var tree Tree
	err := json.Unmarshal([]byte(raw), &tree)
	assert.Error(t, err)
}

func TestFillRoutes_PathsAndMappings(t *testing.T) {
	inner := NewNode(&CollectedInfo{InfoType: InfoValue, Type: TypeObject})
	inner.Put("unit-price", leaf(TypeFloat))
	inner.Put("type", leaf(TypeString))
	tree := treeWith(map[string]*Node{"order": inner}, "order")

	require.NoError(t, tree.FillRoutes(" -> "))

	order, _ := tree.Root.Field("order")
	assert.Equal(t, "order", order.Info.Path)
	assert.Equal(t, "order", order.Info.Mapping)

	price, _ := order.Field("unit-price")
	assert.Equal(t, "order -> unit-price", price.Info.Path)
	assert.Equal(t, "order -> unit_price", price.Info.Mapping)

	// Go keyword in the terminal position gets prefixed.
	kw, _ := order.Field("type")
	assert.Equal(t, "order -> type", kw.Info.Path)
	assert.Equal(t, "order -> _type", kw.Info.Mapping)
}

func TestFillRoutes_EmptyDelimiterDefaults(t *testing.T) {
	inner := NewNode(&CollectedInfo{InfoType: InfoValue, Type: TypeObject})
	inner.Put("x", leaf(TypeFloat))
	tree := treeWith(map[string]*Node{"o": inner}, "o")

	require.NoError(t, tree.FillRoutes(""))
	x, _ := inner.Field("x")
	assert.Equal(t, "o"+DefaultDelimiter+"x", x.Info.Path)
}

func TestFillRoutes_PathRoundTrip(t *testing.T) {
	inner := NewNode(&CollectedInfo{InfoType: InfoValue, Type: TypeObject})
	inner.Put("unit-price", leaf(TypeFloat))
	deep := NewNode(&CollectedInfo{InfoType: InfoValue, Type: TypeObject})
	deep.Put("code", leaf(TypeString))
	inner.Put("detail", deep)
	tree := treeWith(map[string]*Node{"order": inner, "flag": leaf(TypeBoolean)}, "order", "flag")

	require.NoError(t, tree.FillRoutes(" -> "))

	// Every filled path resolves back to the node it was written on.
	tree.Walk(func(segs []string, n *Node) bool {
		info, err := tree.InfoAt(n.Info.Path, " -> ")
		require.NoError(t, err, n.Info.Path)
		assert.Same(t, n.Info, info, n.Info.Path)
		return true
	})
}

func TestMappingName(t *testing.T) {
	assert.Equal(t, "unit_price", MappingName("order -> unit_price", " -> "))
	assert.Equal(t, "solo", MappingName("solo", " -> "))
	assert.Equal(t, "tail", MappingName("a -> b -> tail", ""))
}

func TestToVarName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"plain", "plain"},
		{"unit price", "unit_price"},
		{"a.b,c-d", "a_b_c_d"},
		{"path/to\\x", "path_to_x"},
		{"@attr", "_attr"},
		{"$ref", "_ref"},
		{"type", "_type"},
		{"range", "_range"},
		{"3rd_party", "_3rd_party"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ToVarName(tc.in), "input %q", tc.in)
	}
}
