package infer

import (
	"fmt"
	"strings"

	"github.com/exstruct-io/exstruct/internal/structtree"
)

// newInfo assembles the per-field metadata shared by every extractor:
// alias-driven ignore and external-id decisions, with type and occurrence
// left to the caller.
func newInfo(opts Options, annotation string, aliases []string) *structtree.CollectedInfo {
	info := &structtree.CollectedInfo{
		Annotation: annotation,
		Aliases:    aliases,
		InfoType:   structtree.InfoValue,
	}
	if isIgnored(opts, aliases) {
		info.InfoType = structtree.InfoIgnored
	}
	if len(aliases) > 0 {
		info.ExternalID = isExternalID(opts, aliases[0])
	}
	return info
}

// isIgnored reports whether any alias contains any configured ignored-field
// substring, case-insensitively.
func isIgnored(opts Options, aliases []string) bool {
	for _, ignored := range opts.IgnoredFields {
		for _, alias := range aliases {
			if strings.Contains(strings.ToLower(alias), strings.ToLower(ignored)) {
				return true
			}
		}
	}
	return false
}

func isExternalID(opts Options, name string) bool {
	for _, id := range opts.ExternalIDs {
		if strings.EqualFold(id, name) {
			return true
		}
	}
	return false
}

// checkReservedKey rejects sources whose field names collide with the
// reserved metadata key.
func checkReservedKey(name string) error {
	if name == structtree.InfoKey {
		return fmt.Errorf("source field name collides with reserved key %q", structtree.InfoKey)
	}
	return nil
}

// spliceLevels makes the first n levels of the tree transparent: each level's
// nodes are removed and their children adopted by the parent.
func spliceLevels(root *structtree.Node, n int) {
	for ; n > 0; n-- {
		spliced := &structtree.Node{}
		for _, name := range root.Names() {
			child, _ := root.Field(name)
			if child.IsLeaf() {
				// A leaf at a spliced level has nothing to hoist; keep it.
				spliced.Put(name, child)
				continue
			}
			for _, grandName := range child.Names() {
				grand, _ := child.Field(grandName)
				spliced.Put(grandName, grand)
			}
		}
		*root = *spliced
	}
}
