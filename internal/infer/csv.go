package infer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/exstruct-io/exstruct/internal/structtree"
)

// CSVExtractor infers structure from CSV tables: one scalar leaf per column,
// no nesting, occurrence never inferred.
type CSVExtractor struct{}

func (e *CSVExtractor) BuildStructure(r io.Reader, opts Options) (*structtree.Tree, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv source has no header row")
	}

	return tabularTree(records[0], records[1:], opts)
}

// tabularTree builds the structure for any tabular source: headers plus data
// rows. Column types are sniffed from the data and mapped through the
// type-mapping table. Shared by the CSV, HTML-table and Markdown-table
// extractors.
func tabularTree(headers []string, rows [][]string, opts Options) (*structtree.Tree, error) {
	wrapper := newInfo(opts, "", []string{opts.StructureName})
	wrapper.Type = structtree.TypeObject
	wrapper.Required = false
	root := structtree.NewNode(wrapper)

	for col, header := range headers {
		if err := checkReservedKey(header); err != nil {
			return nil, err
		}
		values := make([]string, 0, len(rows))
		for _, row := range rows {
			if col < len(row) {
				values = append(values, row[col])
			}
		}

		info := newInfo(opts, "", []string{header})
		info.Required = false
		native := sniffColumnType(values)
		if t, ok := opts.TypeMapping[native]; ok {
			info.Type = t
		} else {
			info.Type = structtree.TypeString
		}
		root.Put(header, structtree.NewNode(info))
	}

	tree := structtree.New()
	tree.Root.Put(opts.StructureName, root)
	return tree, nil
}

// sniffColumnType infers the narrowest native scalar type every non-empty
// value of a column fits. Empty columns are strings.
func sniffColumnType(values []string) string {
	isInt, isFloat, isBool := true, true, true
	seen := false
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		seen = true
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			isInt = false
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			isFloat = false
		}
		if !strings.EqualFold(v, "true") && !strings.EqualFold(v, "false") {
			isBool = false
		}
	}
	switch {
	case !seen:
		return "string"
	case isInt:
		return "int64"
	case isFloat:
		return "float64"
	case isBool:
		return "bool"
	default:
		return "string"
	}
}
