package infer

import (
	"log/slog"

	"github.com/exstruct-io/exstruct/internal/structtree"
)

// valueTree infers a structure tree from one decoded document value. Top
// levels with several fields are wrapped under the configured structure
// name; sequences at the top level are unified element by element.
func valueTree(doc structtree.Value, opts Options) (*structtree.Tree, error) {
	tree := structtree.New()

	if doc.Kind() == structtree.KindSequence {
		for _, item := range doc.Items() {
			one := structtree.New()
			if err := addEntry(one, item, opts); err != nil {
				return nil, err
			}
			tree.Merge(one, structtree.ExtractionPriorities)
		}
		return tree, nil
	}

	if err := addEntry(tree, doc, opts); err != nil {
		return nil, err
	}
	return tree, nil
}

// addEntry places one document entry into the tree, wrapping multi-field
// mappings under the structure name so the tree always has a single root
// field per entry kind.
func addEntry(tree *structtree.Tree, doc structtree.Value, opts Options) error {
	name := opts.StructureName
	if doc.Kind() == structtree.KindMapping && len(doc.Keys()) == 1 {
		name = doc.Keys()[0]
		doc, _ = doc.Field(name)
	}
	if err := checkReservedKey(name); err != nil {
		return err
	}
	node, err := valueNode(name, doc, opts)
	if err != nil {
		return err
	}
	tree.Root.Put(name, node)
	return nil
}

// valueNode is the element-level inference contract for generic values:
// composites recurse, sequences unify their element structures, scalars map
// their native runtime type through the type-mapping table.
func valueNode(name string, v structtree.Value, opts Options) (*structtree.Node, error) {
	info := newInfo(opts, "", []string{name})
	info.Required = false

	switch v.Kind() {
	case structtree.KindMapping:
		info.Type = structtree.TypeObject
		node := structtree.NewNode(info)
		for _, key := range v.Keys() {
			if err := checkReservedKey(key); err != nil {
				return nil, err
			}
			child, _ := v.Field(key)
			childNode, err := valueNode(key, child, opts)
			if err != nil {
				return nil, err
			}
			node.Put(key, childNode)
		}
		return node, nil

	case structtree.KindSequence:
		// Elements may disagree on shape; union them. A sequence of scalars
		// stays a scalar leaf with the widened type; anything composite makes
		// the node an object.
		node := structtree.NewNode(info)
		for _, item := range v.Items() {
			itemNode, err := valueNode(name, item, opts)
			if err != nil {
				return nil, err
			}
			structtree.MergeInto(node, itemNode, structtree.ExtractionPriorities)
		}
		if len(v.Items()) == 0 || !node.IsLeaf() {
			node.Info.Type = structtree.TypeObject
		}
		return node, nil

	case structtree.KindNull:
		info.Type = structtree.TypeString
		return structtree.NewNode(info), nil

	default:
		info.Type = scalarType(v, opts)
		return structtree.NewNode(info), nil
	}
}

// scalarType maps a scalar's native type name via the type-mapping table,
// falling back to String for unmapped names rather than failing a whole
// traversal.
func scalarType(v structtree.Value, opts Options) structtree.DataType {
	native := v.NativeTypeName()
	if t, ok := opts.TypeMapping[native]; ok {
		return t
	}
	slog.Warn("no type mapping for native type, using String", "native_type", native)
	return structtree.TypeString
}
