package infer

import (
	"fmt"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/exstruct-io/exstruct/internal/structtree"
)

// MarkdownExtractor infers structure from the first pipe table in a
// Markdown document, treating it as a tabular source.
type MarkdownExtractor struct{}

func (e *MarkdownExtractor) BuildStructure(r io.Reader, opts Options) (*structtree.Tree, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	table := findMarkdownTable(doc)
	if table == nil {
		return nil, fmt.Errorf("markdown source has no table")
	}

	var headers []string
	var rows [][]string
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, string(cell.Text(src)))
		}
		if _, ok := row.(*east.TableHeader); ok {
			headers = cells
			continue
		}
		rows = append(rows, cells)
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("markdown table has no header row")
	}
	return tabularTree(headers, rows, opts)
}

func findMarkdownTable(doc ast.Node) ast.Node {
	var table ast.Node
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if _, ok := n.(*east.Table); ok && entering {
			table = n
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return table
}
