package infer

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/clbanning/mxj/v2"

	"github.com/exstruct-io/exstruct/internal/structtree"
)

// XMLExtractor infers structure from a schema-less XML document. It tries to
// discover the document's schema first; on failure it decodes the document
// into a generic nested value and infers from that, which is weaker but never
// fails hard.
type XMLExtractor struct {
	Log *slog.Logger
}

func (e *XMLExtractor) BuildStructure(r io.Reader, opts Options) (*structtree.Tree, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	log := e.Log
	if log == nil {
		log = slog.Default()
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	if schemaPath, ok := discoverSchema(data, opts.SchemaDir); ok {
		f, err := os.Open(schemaPath)
		if err == nil {
			defer f.Close()
			xsd := &XSDExtractor{}
			tree, err := xsd.BuildStructure(f, opts)
			if err == nil {
				return tree, nil
			}
			log.Info("discovered schema unusable, falling back to document-only inference",
				"schema", schemaPath, "error", err)
		}
	} else {
		log.Info("no schema found for document, structure will be built from the document only")
	}

	m, err := mxj.NewMapXml(data, true)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	doc, err := structtree.FromAny(map[string]any(m))
	if err != nil {
		return nil, fmt.Errorf("shape document: %w", err)
	}
	return valueTree(dropXMLAttributes(doc), opts)
}

// discoverSchema looks for an xsi:schemaLocation or
// xsi:noNamespaceSchemaLocation hint on the document's root element and
// resolves it to a readable file under dir. Discovery is purely local; no
// network fetches.
func discoverSchema(data []byte, dir string) (string, bool) {
	if dir == "" {
		return "", false
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", false
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		for _, attr := range start.Attr {
			var candidate string
			switch attr.Name.Local {
			case "noNamespaceSchemaLocation":
				candidate = attr.Value
			case "schemaLocation":
				// Pairs of "namespace location"; the location is last.
				parts := strings.Fields(attr.Value)
				if len(parts) > 0 {
					candidate = parts[len(parts)-1]
				}
			}
			if candidate == "" {
				continue
			}
			path := filepath.Join(dir, filepath.Base(candidate))
			if _, err := os.Stat(path); err == nil {
				return path, true
			}
		}
		// Only the root element carries the hint.
		return "", false
	}
}

// dropXMLAttributes removes mxj's "-attr" and "#text" artifacts so attribute
// noise does not become structure fields; element text becomes the element's
// scalar content.
func dropXMLAttributes(v structtree.Value) structtree.Value {
	switch v.Kind() {
	case structtree.KindMapping:
		if text, ok := v.Field("#text"); ok && len(v.Keys()) <= attrOnlyKeyCount(v)+1 {
			return text
		}
		out := structtree.NewMapping()
		for _, key := range v.Keys() {
			if strings.HasPrefix(key, "-") || key == "#text" {
				continue
			}
			child, _ := v.Field(key)
			out.Set(key, dropXMLAttributes(child))
		}
		return out
	case structtree.KindSequence:
		items := make([]structtree.Value, 0, len(v.Items()))
		for _, item := range v.Items() {
			items = append(items, dropXMLAttributes(item))
		}
		return structtree.Sequence(items...)
	default:
		return v
	}
}

func attrOnlyKeyCount(v structtree.Value) int {
	n := 0
	for _, key := range v.Keys() {
		if strings.HasPrefix(key, "-") {
			n++
		}
	}
	return n
}
