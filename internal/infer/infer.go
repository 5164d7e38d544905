// Package infer builds structure trees out of heterogeneous sources: XSD
// schemas, XML and JSON documents, JSON Schemas, and tabular data (CSV, HTML
// and Markdown tables). All extractors share one contract and one
// element-level inference vocabulary; the traversal differs per format.
package infer

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/exstruct-io/exstruct/internal/structtree"
)

// Options configures structure extraction.
type Options struct {
	// TypeMapping translates source-native type names to canonical types.
	// Defaults to DefaultTypeMapping.
	TypeMapping map[string]structtree.DataType

	// ExternalIDs lists field names (matched case-insensitively) that mark a
	// field as an external identifier.
	ExternalIDs []string

	// IgnoredFields excludes fields whose aliases contain any of these
	// substrings, case-insensitively. Substring, not exact, match: a
	// configured value of "id" ignores "OrderId" too. Kept for backward
	// compatibility with existing configurations.
	IgnoredFields []string

	// Delimiter separates path and mapping segments. Defaults to " -> ".
	Delimiter string

	// IgnoreDepth treats the first N levels of the source as transparent
	// envelopes: their children are spliced directly into the parent.
	IgnoreDepth int

	// StructureName names the synthetic wrapper for sources whose top level
	// has more than one field. Defaults to "entry".
	StructureName string

	// SchemaDir is where schema locations referenced by markup documents are
	// resolved. Empty disables schema discovery from documents.
	SchemaDir string
}

// DefaultTypeMapping covers the native type vocabularies of the supported
// formats: XSD built-ins, JSON Schema type names, and the scalar names used
// by tabular and generic-value inference.
var DefaultTypeMapping = map[string]structtree.DataType{
	// XSD built-ins.
	"string":             structtree.TypeString,
	"normalizedString":   structtree.TypeString,
	"token":              structtree.TypeString,
	"anyURI":             structtree.TypeString,
	"int":                structtree.TypeInteger,
	"integer":            structtree.TypeInteger,
	"long":               structtree.TypeInteger,
	"short":              structtree.TypeInteger,
	"nonNegativeInteger": structtree.TypeInteger,
	"positiveInteger":    structtree.TypeInteger,
	"decimal":            structtree.TypeFloat,
	"float":              structtree.TypeFloat,
	"double":             structtree.TypeFloat,
	"boolean":            structtree.TypeBoolean,
	"date":               structtree.TypeDate,
	"dateTime":           structtree.TypeDate,
	"gYear":              structtree.TypeDate,
	"base64Binary":       structtree.TypeLargeBinary,
	"hexBinary":          structtree.TypeLargeBinary,

	// JSON Schema type names.
	"number": structtree.TypeFloat,
	"object": structtree.TypeObject,
	"array":  structtree.TypeObject,
	"null":   structtree.TypeString,

	// Native scalar names from value and tabular inference.
	"bool":    structtree.TypeBoolean,
	"int64":   structtree.TypeInteger,
	"float64": structtree.TypeFloat,
}

var canonicalTypes = map[structtree.DataType]bool{
	structtree.TypeInteger:     true,
	structtree.TypeBoolean:     true,
	structtree.TypeFloat:       true,
	structtree.TypeString:      true,
	structtree.TypeDate:        true,
	structtree.TypeTimestamp:   true,
	structtree.TypeLargeBinary: true,
	structtree.TypeObject:      true,
}

// withDefaults validates the options and fills defaults. Configuration
// errors surface here, before any traversal begins.
func (o Options) withDefaults() (Options, error) {
	if o.IgnoreDepth < 0 {
		return o, fmt.Errorf("ignore depth must be non-negative, got %d", o.IgnoreDepth)
	}
	if o.Delimiter == "" {
		o.Delimiter = structtree.DefaultDelimiter
	}
	if o.StructureName == "" {
		o.StructureName = "entry"
	}
	if o.TypeMapping == nil {
		o.TypeMapping = DefaultTypeMapping
	} else {
		for name, canonical := range o.TypeMapping {
			if !canonicalTypes[canonical] {
				return o, fmt.Errorf("type mapping %q -> %q: not a canonical type", name, canonical)
			}
		}
	}
	return o, nil
}

// Extractor builds a structure tree from one source format.
type Extractor interface {
	BuildStructure(r io.Reader, opts Options) (*structtree.Tree, error)
}

// SupportedExtensions lists file extensions this service can infer structure
// from.
var SupportedExtensions = map[string]bool{
	".csv":  true,
	".xsd":  true,
	".xml":  true,
	".json": true,
	".html": true,
	".htm":  true,
	".md":   true,
}

// ForFormat returns the extractor for a format name.
func ForFormat(format string) (Extractor, error) {
	switch strings.ToLower(format) {
	case "csv":
		return &CSVExtractor{}, nil
	case "xsd":
		return &XSDExtractor{}, nil
	case "xml":
		return &XMLExtractor{}, nil
	case "json":
		return &JSONExtractor{}, nil
	case "jsonschema", "json-schema":
		return &JSONSchemaExtractor{}, nil
	case "html", "htm":
		return &HTMLExtractor{}, nil
	case "md", "markdown":
		return &MarkdownExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported source format: %s", format)
	}
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string) (Extractor, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return nil, fmt.Errorf("cannot determine format of %q", filename)
	}
	return ForFormat(ext)
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Structure is the full inference entry point: pick the extractor by
// filename, build the tree, and fill every route. The returned tree is ready
// to act as an extraction plan.
func Structure(r io.Reader, filename string, opts Options) (*structtree.Tree, error) {
	ex, err := ForFile(filename)
	if err != nil {
		return nil, err
	}
	tree, err := ex.BuildStructure(r, opts)
	if err != nil {
		return nil, err
	}
	delim := opts.Delimiter
	if delim == "" {
		delim = structtree.DefaultDelimiter
	}
	if err := tree.FillRoutes(delim); err != nil {
		return nil, fmt.Errorf("fill routes: %w", err)
	}
	return tree, nil
}
