package structtree

import (
	"fmt"
	"strings"
)

// NodeAt walks the tree along a delimited path and returns the node it ends
// on.
func (t *Tree) NodeAt(path, delim string) (*Node, error) {
	if delim == "" {
		delim = DefaultDelimiter
	}
	cur := t.Root
	for _, seg := range strings.Split(path, delim) {
		next, ok := cur.Field(seg)
		if !ok {
			return nil, fmt.Errorf("no field %q in path %q", seg, path)
		}
		cur = next
	}
	return cur, nil
}

// InfoAt resolves a path to the CollectedInfo stored at its final node.
func (t *Tree) InfoAt(path, delim string) (*CollectedInfo, error) {
	n, err := t.NodeAt(path, delim)
	if err != nil {
		return nil, err
	}
	if n.Info == nil {
		return nil, fmt.Errorf("node at %q has no collected info", path)
	}
	return n.Info, nil
}

// SetAt replaces (or inserts) the node at the given path, creating no
// intermediate nodes: all but the last segment must already exist.
func (t *Tree) SetAt(path, delim string, node *Node) error {
	if delim == "" {
		delim = DefaultDelimiter
	}
	segs := strings.Split(path, delim)
	cur := t.Root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur.Field(seg)
		if !ok {
			return fmt.Errorf("no field %q in path %q", seg, path)
		}
		cur = next
	}
	cur.Put(segs[len(segs)-1], node)
	return nil
}
