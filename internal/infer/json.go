package infer

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/exstruct-io/exstruct/internal/structtree"
)

// JSONExtractor infers structure from a generic JSON document. Top-level
// arrays are unified element by element, so documents that disagree on shape
// still produce one structure.
type JSONExtractor struct{}

func (e *JSONExtractor) BuildStructure(r io.Reader, opts Options) (*structtree.Tree, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	doc, err := structtree.FromAny(raw)
	if err != nil {
		return nil, fmt.Errorf("shape json: %w", err)
	}
	return valueTree(doc, opts)
}

// JSONSchemaExtractor infers structure from a JSON Schema's definitions
// block, resolving local $ref pointers.
type JSONSchemaExtractor struct{}

func (e *JSONSchemaExtractor) BuildStructure(r io.Reader, opts Options) (*structtree.Tree, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	var schema map[string]any
	if err := json.NewDecoder(r).Decode(&schema); err != nil {
		return nil, fmt.Errorf("parse json schema: %w", err)
	}

	defsRaw, ok := schema["definitions"]
	if !ok {
		if defsRaw, ok = schema["$defs"]; !ok {
			return nil, fmt.Errorf("json schema has no definitions")
		}
	}
	defs, ok := defsRaw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("json schema definitions is not an object")
	}

	b := &jsonSchemaBuilder{opts: opts, defs: defs}
	tree := structtree.New()
	for _, name := range sortedKeys(defs) {
		if err := checkReservedKey(name); err != nil {
			return nil, err
		}
		def, ok := defs[name].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("definition %q is not an object", name)
		}
		node, err := b.parseElement(name, def, nil)
		if err != nil {
			return nil, err
		}
		tree.Root.Put(name, node)
	}
	return tree, nil
}

type jsonSchemaBuilder struct {
	opts Options
	defs map[string]any
}

// parseElement builds the node for one schema element. seenRefs guards $ref
// cycles: a definition already being expanded on this branch is emitted
// without children.
func (b *jsonSchemaBuilder) parseElement(name string, schema map[string]any, seenRefs []string) (*structtree.Node, error) {
	if ref, ok := schema["$ref"].(string); ok {
		resolved, refName, err := b.resolveRef(ref)
		if err != nil {
			return nil, err
		}
		for _, seen := range seenRefs {
			if seen == refName {
				info := newInfo(b.opts, "", []string{name})
				info.Type = structtree.TypeObject
				return structtree.NewNode(info), nil
			}
		}
		seenRefs = append(append([]string(nil), seenRefs...), refName)
		schema = resolved
	}

	annotation, _ := schema["description"].(string)
	info := newInfo(b.opts, annotation, []string{name})
	info.Required = false

	typeName, _ := schema["type"].(string)
	if t, ok := b.opts.TypeMapping[typeName]; ok {
		info.Type = t
	} else {
		info.Type = structtree.TypeString
	}

	node := structtree.NewNode(info)
	props, _ := schema["properties"].(map[string]any)
	for _, childName := range sortedKeys(props) {
		if err := checkReservedKey(childName); err != nil {
			return nil, err
		}
		childSchema, ok := props[childName].(map[string]any)
		if !ok {
			continue
		}
		child, err := b.parseElement(childName, childSchema, seenRefs)
		if err != nil {
			return nil, err
		}
		node.Put(childName, child)
	}
	return node, nil
}

// resolveRef handles local refs of the form "#/definitions/Name".
func (b *jsonSchemaBuilder) resolveRef(ref string) (map[string]any, string, error) {
	const prefix1, prefix2 = "#/definitions/", "#/$defs/"
	var name string
	switch {
	case len(ref) > len(prefix1) && ref[:len(prefix1)] == prefix1:
		name = ref[len(prefix1):]
	case len(ref) > len(prefix2) && ref[:len(prefix2)] == prefix2:
		name = ref[len(prefix2):]
	default:
		return nil, "", fmt.Errorf("unsupported $ref %q: only local definition refs are resolvable", ref)
	}
	def, ok := b.defs[name].(map[string]any)
	if !ok {
		return nil, "", fmt.Errorf("$ref %q: no such definition", ref)
	}
	return def, name, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic traversal; Go maps are unordered.
	sort.Strings(keys)
	return keys
}
