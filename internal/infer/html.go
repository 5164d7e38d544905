package infer

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/exstruct-io/exstruct/internal/structtree"
)

// HTMLExtractor infers structure from the first <table> in an HTML page,
// treating it as a tabular source: header cells become columns, body cells
// feed type sniffing.
type HTMLExtractor struct{}

func (e *HTMLExtractor) BuildStructure(r io.Reader, opts Options) (*structtree.Tree, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	table := findTable(doc)
	if table == nil {
		return nil, fmt.Errorf("html source has no table")
	}

	headers, rows := tableCells(table)
	if len(headers) == 0 {
		return nil, fmt.Errorf("html table has no header row")
	}
	return tabularTree(headers, rows, opts)
}

func findTable(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "table" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTable(c); t != nil {
			return t
		}
	}
	return nil
}

// tableCells collects the header row (th cells, or the first row when no th
// exists) and all remaining rows.
func tableCells(table *html.Node) (headers []string, rows [][]string) {
	var trs []*html.Node
	var collectRows func(n *html.Node)
	collectRows = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			trs = append(trs, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collectRows(c)
		}
	}
	collectRows(table)

	for i, tr := range trs {
		var cells []string
		isHeader := false
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "th":
				isHeader = true
				cells = append(cells, textContent(c))
			case "td":
				cells = append(cells, textContent(c))
			}
		}
		if (isHeader || i == 0) && headers == nil {
			headers = cells
			continue
		}
		rows = append(rows, cells)
	}
	return headers, rows
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}
