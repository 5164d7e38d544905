package infer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exstruct-io/exstruct/internal/structtree"
)

func TestHTML_TableWithHeaderCells(t *testing.T) {
	src := `<html><body>
<p>preamble</p>
<table>
  <tr><th>sku</th><th>qty</th><th>price</th></tr>
  <tr><td>A-1</td><td>3</td><td>9.99</td></tr>
  <tr><td>B-2</td><td>5</td><td>12.00</td></tr>
</table>
</body></html>`
	ex := &HTMLExtractor{}
	tree, err := ex.BuildStructure(strings.NewReader(src), Options{})
	require.NoError(t, err)

	entry, ok := tree.Root.Field("entry")
	require.True(t, ok)
	assert.Equal(t, []string{"sku", "qty", "price"}, entry.Names())

	qty, _ := entry.Field("qty")
	assert.Equal(t, structtree.TypeInteger, qty.Info.Type)
	price, _ := entry.Field("price")
	assert.Equal(t, structtree.TypeFloat, price.Info.Type)
	sku, _ := entry.Field("sku")
	assert.Equal(t, structtree.TypeString, sku.Info.Type)
}

func TestHTML_FirstRowAsHeaderWithoutTH(t *testing.T) {
	src := `<table>
<tr><td>name</td><td>age</td></tr>
<tr><td>ada</td><td>36</td></tr>
</table>`
	ex := &HTMLExtractor{}
	tree, err := ex.BuildStructure(strings.NewReader(src), Options{})
	require.NoError(t, err)

	entry, _ := tree.Root.Field("entry")
	assert.Equal(t, []string{"name", "age"}, entry.Names())
	age, _ := entry.Field("age")
	assert.Equal(t, structtree.TypeInteger, age.Info.Type)
}

func TestHTML_NestedMarkupInCells(t *testing.T) {
	src := `<table>
<tr><th><b>label</b></th></tr>
<tr><td><span>deep <i>text</i></span></td></tr>
</table>`
	ex := &HTMLExtractor{}
	tree, err := ex.BuildStructure(strings.NewReader(src), Options{})
	require.NoError(t, err)

	entry, _ := tree.Root.Field("entry")
	_, ok := entry.Field("label")
	assert.True(t, ok)
}

func TestHTML_NoTable(t *testing.T) {
	ex := &HTMLExtractor{}
	_, err := ex.BuildStructure(strings.NewReader("<p>just text</p>"), Options{})
	assert.Error(t, err)
}
