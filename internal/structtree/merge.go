package structtree

// Priorities orders canonical types by generality. Merging always widens
// toward the higher-priority type, never narrows.
type Priorities map[DataType]int

// ExtractionPriorities is the table used when reconciling structures that
// drive data extraction.
var ExtractionPriorities = Priorities{
	TypeInteger: 1,
	TypeBoolean: 1,
	TypeFloat:   2,
	TypeString:  3,
	TypeObject:  3,
}

// GenerationPriorities is the wider table used when the merged structure
// feeds schema generation.
var GenerationPriorities = Priorities{
	TypeInteger:     1,
	TypeBoolean:     1,
	TypeFloat:       2,
	TypeDate:        2,
	TypeTimestamp:   3,
	TypeString:      4,
	TypeLargeBinary: 4,
	TypeObject:      5,
}

// Merge folds incoming into t. Fields seen in either tree are kept; where a
// field exists in both, conflicting leaf types widen via prio. A field that
// is scalar on one side and composite on the other becomes composite with
// type object. Incoming subtrees are deep-copied, so the incoming tree stays
// untouched.
func (t *Tree) Merge(incoming *Tree, prio Priorities) {
	mergeNodes(t.Root, incoming.Root, prio)
}

// MergeInto folds a single incoming node into dst using the same widening
// rules as Merge. Used when unifying array-element structures during
// inference.
func MergeInto(dst, in *Node, prio Priorities) {
	mergeNode(dst, in, prio)
}

func mergeNodes(dst, in *Node, prio Priorities) {
	for _, name := range in.Names() {
		inChild, _ := in.Field(name)
		dstChild, ok := dst.Field(name)
		if !ok {
			dst.Put(name, inChild.Clone())
			continue
		}
		mergeNode(dstChild, inChild, prio)
	}
}

func mergeNode(dst, in *Node, prio Priorities) {
	switch {
	case dst.IsLeaf() && !in.IsLeaf():
		// Kind conflict: composite wins.
		if dst.Info != nil {
			dst.Info.Type = TypeObject
		}
		mergeNodes(dst, in, prio)
	case !dst.IsLeaf() && in.IsLeaf():
		// Composite already won; nothing to take from the scalar side.
	default:
		widen(dst.Info, in.Info, prio)
		mergeNodes(dst, in, prio)
	}
}

// widen replaces dst's type with in's when in's is strictly more general.
func widen(dst, in *CollectedInfo, prio Priorities) {
	if dst == nil || in == nil {
		return
	}
	if prio[in.Type] > prio[dst.Type] {
		dst.Type = in.Type
	}
}
