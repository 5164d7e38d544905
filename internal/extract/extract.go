// Package extract pulls concrete values out of decoded documents, driven by
// a finalized structure tree acting as the decoding plan. The plan is shared
// read-only; documents in a batch are extracted independently, and one bad
// document never aborts the rest.
package extract

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/exstruct-io/exstruct/internal/structtree"
)

// Record is one extracted document: mapping-derived field names to cast
// values.
type Record = map[string]any

// Extractor applies a structure tree to documents. Safe for concurrent use;
// it never mutates the plan.
type Extractor struct {
	plan       *structtree.Tree
	delim      string
	rootPrefix string
	log        *slog.Logger
}

// New builds an extractor over a route-filled plan. rootPrefix, when
// non-empty, names an envelope key unwrapped from every document before the
// plan is applied.
func New(plan *structtree.Tree, delim, rootPrefix string, log *slog.Logger) *Extractor {
	if delim == "" {
		delim = structtree.DefaultDelimiter
	}
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{plan: plan, delim: delim, rootPrefix: rootPrefix, log: log}
}

// Extract realizes one document against the plan. The document must be a
// mapping holding a single top-level field that names the planned structure.
func (e *Extractor) Extract(doc structtree.Value) (Record, error) {
	if e.rootPrefix != "" {
		inner, ok := doc.Field(e.rootPrefix)
		if !ok {
			return nil, fmt.Errorf("document has no root prefix %q", e.rootPrefix)
		}
		doc = inner
	}
	if doc.Kind() != structtree.KindMapping {
		return nil, fmt.Errorf("document is %s, cannot be indexed", doc.Kind())
	}
	if len(doc.Keys()) != 1 {
		return nil, fmt.Errorf("document content must be held in a single top-level field, got %d", len(doc.Keys()))
	}

	name := doc.Keys()[0]
	plan, ok := e.plan.Root.Field(name)
	if !ok || plan.Info == nil {
		return nil, fmt.Errorf("no planned structure for field %q", name)
	}
	content, _ := doc.Field(name)

	record := Record{}
	switch plan.Info.InfoType {
	case structtree.InfoValue:
		value, emit := e.extractData(content, plan)
		if emit {
			record[e.outputName(plan.Info)] = value
		}
	case structtree.InfoExistence:
		record[e.outputName(plan.Info)] = !content.IsNull()
	}
	return record, nil
}

// ExtractBatch extracts many documents against the same plan with bounded
// concurrency. Failures stay per-document: errs[i] is non-nil exactly where
// records[i] is.
func (e *Extractor) ExtractBatch(ctx context.Context, docs []structtree.Value, maxConcurrent int) (records []Record, errs []error) {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	records = make([]Record, len(docs))
	errs = make([]error, len(docs))

	g := new(errgroup.Group)
	g.SetLimit(maxConcurrent)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			rec, err := e.Extract(doc)
			if err != nil {
				errs[i] = err
				return nil
			}
			records[i] = rec
			return nil
		})
	}
	g.Wait()
	return records, errs
}

// extractData walks one plan node against the matching document content.
// The second result is false when the field must not appear in the output at
// all (ignored fields and their descendants).
func (e *Extractor) extractData(content structtree.Value, plan *structtree.Node) (any, bool) {
	info := plan.Info
	if info == nil || info.InfoType == structtree.InfoIgnored {
		return nil, false
	}

	if info.Required && content.IsNull() {
		e.log.Warn("required field has no value", "path", info.Path, "aliases", info.Aliases)
	}

	if info.InfoType == structtree.InfoExistence {
		return !content.IsNull(), true
	}

	if info.Type == structtree.TypeObject && !content.IsNull() {
		switch content.Kind() {
		case structtree.KindSequence:
			out := make([]Record, 0, len(content.Items()))
			for _, item := range content.Items() {
				out = append(out, e.extractFields(item, plan))
			}
			return out, true
		case structtree.KindMapping:
			return e.extractFields(content, plan), true
		default:
			e.log.Warn("composite field holds a scalar, emitting null", "path", info.Path)
			return nil, true
		}
	}

	if content.Kind() == structtree.KindScalar {
		if s, ok := content.ScalarValue().(string); ok {
			cast, err := castValue(s, info.Type)
			if err != nil {
				e.log.Warn("cast failed, emitting null", "path", info.Path, "type", info.Type, "error", err)
				return nil, true
			}
			return cast, true
		}
	}
	return content.Interface(), true
}

// extractFields builds one record from a composite node's children, looking
// each child up by its source field name. Missing keys extract as null.
func (e *Extractor) extractFields(content structtree.Value, plan *structtree.Node) Record {
	record := Record{}
	for _, name := range plan.Names() {
		child, _ := plan.Field(name)
		if child.Info == nil {
			continue
		}
		childContent, _ := content.Field(name)
		value, emit := e.extractData(childContent, child)
		if emit {
			record[e.outputName(child.Info)] = value
		}
	}
	return record
}

// outputName is the terminal segment of the field's mapping, decoupling
// output names from source names.
func (e *Extractor) outputName(info *structtree.CollectedInfo) string {
	return structtree.MappingName(info.Mapping, e.delim)
}
