package infer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exstruct-io/exstruct/internal/structtree"
)

func buildJSON(t *testing.T, src string, opts Options) *structtree.Tree {
	t.Helper()
	ex := &JSONExtractor{}
	tree, err := ex.BuildStructure(strings.NewReader(src), opts)
	require.NoError(t, err)
	return tree
}

func TestJSON_SingleTopKeyUnwraps(t *testing.T) {
	tree := buildJSON(t, `{"order": {"id": 1, "total": 9.5}}`, Options{})

	order, ok := tree.Root.Field("order")
	require.True(t, ok)
	assert.Equal(t, structtree.TypeObject, order.Info.Type)

	id, _ := order.Field("id")
	assert.Equal(t, structtree.TypeInteger, id.Info.Type)
	total, _ := order.Field("total")
	assert.Equal(t, structtree.TypeFloat, total.Info.Type)
}

func TestJSON_MultiKeyWrapsUnderStructureName(t *testing.T) {
	tree := buildJSON(t, `{"a": 1, "b": "x"}`, Options{})

	entry, ok := tree.Root.Field("entry")
	require.True(t, ok)
	assert.Equal(t, structtree.TypeObject, entry.Info.Type)
	assert.Equal(t, []string{"a", "b"}, entry.Names())
}

func TestJSON_TopLevelArrayUnifies(t *testing.T) {
	src := `[{"rec": {"id": 1}}, {"rec": {"id": "A-7", "note": "late"}}]`
	tree := buildJSON(t, src, Options{})

	rec, ok := tree.Root.Field("rec")
	require.True(t, ok)

	// Union of fields across elements, types widened.
	id, ok := rec.Field("id")
	require.True(t, ok)
	assert.Equal(t, structtree.TypeString, id.Info.Type)
	_, ok = rec.Field("note")
	assert.True(t, ok)
}

func TestJSON_ScalarArrayStaysLeaf(t *testing.T) {
	tree := buildJSON(t, `{"doc": {"tags": ["a", "b"]}}`, Options{})
	doc, _ := tree.Root.Field("doc")
	tags, ok := doc.Field("tags")
	require.True(t, ok)
	assert.True(t, tags.IsLeaf())
	assert.Equal(t, structtree.TypeString, tags.Info.Type)
}

func TestJSON_ObjectArrayBecomesObject(t *testing.T) {
	tree := buildJSON(t, `{"doc": {"items": [{"q": 1}, {"q": 2, "d": "x"}]}}`, Options{})
	doc, _ := tree.Root.Field("doc")
	items, ok := doc.Field("items")
	require.True(t, ok)
	assert.Equal(t, structtree.TypeObject, items.Info.Type)
	assert.Equal(t, []string{"q", "d"}, items.Names())
}

func TestJSON_EmptyArrayIsObject(t *testing.T) {
	tree := buildJSON(t, `{"doc": {"items": []}}`, Options{})
	doc, _ := tree.Root.Field("doc")
	items, _ := doc.Field("items")
	assert.Equal(t, structtree.TypeObject, items.Info.Type)
}

func TestJSON_NullBecomesString(t *testing.T) {
	tree := buildJSON(t, `{"doc": {"gone": null}}`, Options{})
	doc, _ := tree.Root.Field("doc")
	gone, _ := doc.Field("gone")
	assert.Equal(t, structtree.TypeString, gone.Info.Type)
}

func TestJSON_ReservedKeyRejected(t *testing.T) {
	ex := &JSONExtractor{}
	_, err := ex.BuildStructure(strings.NewReader(`{"doc": {"`+structtree.InfoKey+`": 1}}`), Options{})
	assert.Error(t, err)
}

func TestJSON_Malformed(t *testing.T) {
	ex := &JSONExtractor{}
	_, err := ex.BuildStructure(strings.NewReader(`{`), Options{})
	assert.Error(t, err)
}

func TestJSONSchema_Definitions(t *testing.T) {
	src := `{
		"definitions": {
			"Order": {
				"type": "object",
				"description": "a purchase order",
				"properties": {
					"id": {"type": "integer"},
					"total": {"type": "number"},
					"customer": {"$ref": "#/definitions/Customer"}
				}
			},
			"Customer": {
				"type": "object",
				"properties": {
					"name": {"type": "string"}
				}
			}
		}
	}`
	ex := &JSONSchemaExtractor{}
	tree, err := ex.BuildStructure(strings.NewReader(src), Options{})
	require.NoError(t, err)

	// Definitions come out sorted by name.
	assert.Equal(t, []string{"Customer", "Order"}, tree.Root.Names())

	order, _ := tree.Root.Field("Order")
	assert.Equal(t, "a purchase order", order.Info.Annotation)
	assert.Equal(t, structtree.TypeObject, order.Info.Type)

	cust, ok := order.Field("customer")
	require.True(t, ok)
	name, ok := cust.Field("name")
	require.True(t, ok)
	assert.Equal(t, structtree.TypeString, name.Info.Type)
}

func TestJSONSchema_RefCycleTerminates(t *testing.T) {
	src := `{
		"$defs": {
			"Node": {
				"type": "object",
				"properties": {
					"value": {"type": "string"},
					"next": {"$ref": "#/$defs/Node"}
				}
			}
		}
	}`
	ex := &JSONSchemaExtractor{}
	tree, err := ex.BuildStructure(strings.NewReader(src), Options{})
	require.NoError(t, err)

	node, _ := tree.Root.Field("Node")
	next, ok := node.Field("next")
	require.True(t, ok)
	assert.Equal(t, structtree.TypeObject, next.Info.Type)

	// The second expansion of Node stops at a childless object node.
	inner, ok := next.Field("next")
	require.True(t, ok)
	assert.True(t, inner.IsLeaf())
	assert.Equal(t, structtree.TypeObject, inner.Info.Type)
}

func TestJSONSchema_UnsupportedRef(t *testing.T) {
	src := `{"definitions": {"A": {"$ref": "http://example.com/schema#/B"}}}`
	ex := &JSONSchemaExtractor{}
	_, err := ex.BuildStructure(strings.NewReader(src), Options{})
	assert.Error(t, err)
}

func TestJSONSchema_NoDefinitions(t *testing.T) {
	ex := &JSONSchemaExtractor{}
	_, err := ex.BuildStructure(strings.NewReader(`{"type": "object"}`), Options{})
	assert.Error(t, err)
}
