// Package structtree defines the canonical, format-agnostic description of a
// document's fields, types and nesting, plus the operations that work on it:
// merging independently inferred trees, route filling, and path lookup.
package structtree

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// InfoKey is the reserved key under which every node carries its metadata
// when a tree is serialized. Source documents must not contain it as a real
// field name.
const InfoKey = "@collected_info"

// DefaultDelimiter separates segments in paths and mappings.
const DefaultDelimiter = " -> "

// DataType is a canonical field type, the target of all source-native type
// mappings.
type DataType string

const (
	TypeInteger     DataType = "Integer"
	TypeBoolean     DataType = "Boolean"
	TypeFloat       DataType = "Float"
	TypeString      DataType = "String"
	TypeDate        DataType = "Date"
	TypeTimestamp   DataType = "Timestamp"
	TypeLargeBinary DataType = "LargeBinary"
	TypeObject      DataType = "object"
)

// InfoType says what should happen to a field during extraction.
type InfoType string

const (
	// InfoValue: extract the field's content.
	InfoValue InfoType = "V"
	// InfoExistence: record only whether the field was present.
	InfoExistence InfoType = "E"
	// InfoIgnored: skip the field entirely. Serialized as null.
	InfoIgnored InfoType = ""
)

// MarshalJSON writes InfoIgnored as null, matching the persisted structure
// format.
func (it InfoType) MarshalJSON() ([]byte, error) {
	if it == InfoIgnored {
		return []byte("null"), nil
	}
	return json.Marshal(string(it))
}

func (it *InfoType) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*it = InfoIgnored
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch InfoType(s) {
	case InfoValue, InfoExistence:
		*it = InfoType(s)
	default:
		return fmt.Errorf("unknown collected_info_type %q", s)
	}
	return nil
}

// CollectedInfo is the metadata record attached to every tree node.
// The "occurence" JSON key is kept as-is for compatibility with existing
// persisted structures.
type CollectedInfo struct {
	Annotation string   `json:"annotation"`
	Aliases    []string `json:"aliases"`
	InfoType   InfoType `json:"collected_info_type"`
	Type       DataType `json:"type"`
	Required   bool     `json:"occurence"`
	ExternalID bool     `json:"external_id"`
	Path       string   `json:"path"`
	Mapping    string   `json:"mapping"`
}

// Clone returns a deep copy.
func (ci *CollectedInfo) Clone() *CollectedInfo {
	if ci == nil {
		return nil
	}
	cp := *ci
	cp.Aliases = append([]string(nil), ci.Aliases...)
	return &cp
}

// Node is one field in a structure tree: a scalar leaf or a composite with
// named children. Field order is preserved. Info is nil only on a tree root,
// which is a plain container for top-level fields.
type Node struct {
	Info   *CollectedInfo
	fields map[string]*Node
	order  []string
}

// NewNode creates a node carrying the given metadata.
func NewNode(info *CollectedInfo) *Node {
	return &Node{Info: info}
}

// Put inserts or replaces a child, preserving insertion order.
func (n *Node) Put(name string, child *Node) {
	if n.fields == nil {
		n.fields = make(map[string]*Node)
	}
	if _, ok := n.fields[name]; !ok {
		n.order = append(n.order, name)
	}
	n.fields[name] = child
}

// Field returns the named child.
func (n *Node) Field(name string) (*Node, bool) {
	c, ok := n.fields[name]
	return c, ok
}

// Names returns child names in insertion order.
func (n *Node) Names() []string {
	return n.order
}

// Len is the number of children.
func (n *Node) Len() int {
	return len(n.order)
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.order) == 0
}

// Clone returns a deep copy of the node and its subtree.
func (n *Node) Clone() *Node {
	cp := NewNode(n.Info.Clone())
	for _, name := range n.order {
		cp.Put(name, n.fields[name].Clone())
	}
	return cp
}

// Tree is a structure tree: an ordered mapping from top-level field name to
// node. The root itself carries no CollectedInfo.
type Tree struct {
	Root *Node
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{Root: &Node{}}
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	return &Tree{Root: t.Root.Clone()}
}

// Walk visits every node carrying metadata in depth-first order, passing the
// key segments from the root. Returning false stops descent below the node.
func (t *Tree) Walk(fn func(segments []string, node *Node) bool) {
	var walk func(n *Node, segs []string)
	walk = func(n *Node, segs []string) {
		for _, name := range n.order {
			child := n.fields[name]
			cs := append(append([]string(nil), segs...), name)
			if child.Info != nil && !fn(cs, child) {
				continue
			}
			walk(child, cs)
		}
	}
	walk(t.Root, nil)
}

func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, name := range n.order {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(n.fields[name])
		if err != nil {
			return nil, fmt.Errorf("marshal field %s: %w", name, err)
		}
		buf.Write(v)
	}
	if n.Info != nil {
		if !first {
			buf.WriteByte(',')
		}
		buf.WriteString(`"` + InfoKey + `":`)
		v, err := json.Marshal(n.Info)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (n *Node) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode field %s: %w", key, err)
		}
		if key == InfoKey {
			var info CollectedInfo
			if err := json.Unmarshal(raw, &info); err != nil {
				return fmt.Errorf("decode %s: %w", InfoKey, err)
			}
			n.Info = &info
			continue
		}
		child := &Node{}
		if err := json.Unmarshal(raw, child); err != nil {
			return fmt.Errorf("decode field %s: %w", key, err)
		}
		n.Put(key, child)
	}
	return nil
}

func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Root)
}

func (t *Tree) UnmarshalJSON(data []byte) error {
	root := &Node{}
	if err := json.Unmarshal(data, root); err != nil {
		return err
	}
	root.Info = nil
	t.Root = root
	return nil
}
