package structtree

import (
	"strings"

	"golang.org/x/sync/errgroup"
)

// RouteFillWorkers caps the fan-out of FillRoutes. Typical trees are far
// smaller; unbounded concurrency buys nothing here.
const RouteFillWorkers = 100

// FillRoutes assigns every metadata-carrying node its lookup path and its
// normalized mapping name. Each task writes only to its own node's
// CollectedInfo, so no locking is needed; the call returns only after every
// route is filled. After FillRoutes the tree is treated as immutable.
func (t *Tree) FillRoutes(delim string) error {
	if delim == "" {
		delim = DefaultDelimiter
	}

	type target struct {
		info *CollectedInfo
		segs []string
	}
	var targets []target
	t.Walk(func(segs []string, n *Node) bool {
		targets = append(targets, target{info: n.Info, segs: segs})
		return true
	})

	g := new(errgroup.Group)
	g.SetLimit(RouteFillWorkers)
	for _, tg := range targets {
		tg := tg
		g.Go(func() error {
			tg.info.Path = strings.Join(tg.segs, delim)

			mapped := append([]string(nil), tg.segs...)
			mapped[len(mapped)-1] = ToVarName(mapped[len(mapped)-1])
			tg.info.Mapping = strings.Join(mapped, delim)
			return nil
		})
	}
	return g.Wait()
}

// MappingName returns the terminal segment of a mapping, the literal key
// used for the field in extracted records.
func MappingName(mapping, delim string) string {
	if delim == "" {
		delim = DefaultDelimiter
	}
	parts := strings.Split(mapping, delim)
	return parts[len(parts)-1]
}
