package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/clbanning/mxj/v2"

	"github.com/exstruct-io/exstruct/internal/config"
	"github.com/exstruct-io/exstruct/internal/docstore"
	"github.com/exstruct-io/exstruct/internal/extract"
	"github.com/exstruct-io/exstruct/internal/infer"
	"github.com/exstruct-io/exstruct/internal/structtree"
)

// Worker processes a single ingestion job: infer the structure from the
// source, fold it into the accumulated structure of its kind, fill routes,
// extract every document against the finalized plan, and ship everything to
// the docstore.
type Worker struct {
	registry *Registry
	store    *docstore.Client
	log      *slog.Logger
	cfg      config.Config
}

func NewWorker(registry *Registry, store *docstore.Client, log *slog.Logger, cfg config.Config) *Worker {
	return &Worker{
		registry: registry,
		store:    store,
		log:      log,
		cfg:      cfg,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "structure", job.StructureName)

	opts := infer.Options{
		ExternalIDs:   w.cfg.ExternalIDs,
		IgnoredFields: w.cfg.IgnoredFields,
		Delimiter:     w.cfg.MappingDelimiter,
		StructureName: job.StructureName,
		SchemaDir:     w.cfg.SchemaDir,
	}

	// Phase 1: Infer.
	job.SetStatus(StatusInferring, "inferring")
	ex, err := infer.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "inferring")
		return
	}
	tree, err := ex.BuildStructure(bytes.NewReader(job.SourceData()), opts)
	if err != nil {
		log.Error("inference failed", "error", err)
		job.AddError(fmt.Sprintf("infer: %s", err))
		job.SetStatus(StatusFailed, "inferring")
		return
	}

	// Phase 2: Unify with what other sources of this kind contributed.
	job.SetStatus(StatusUnifying, "unifying")
	plan := w.registry.Fold(job.StructureName, tree, structtree.ExtractionPriorities)

	// Phase 3: Fill routes. After this the plan is immutable.
	job.SetStatus(StatusRouting, "routing")
	if err := plan.FillRoutes(w.cfg.MappingDelimiter); err != nil {
		log.Error("route filling failed", "error", err)
		job.AddError(fmt.Sprintf("routes: %s", err))
		job.SetStatus(StatusFailed, "routing")
		return
	}

	// Phase 4: Extract documents against the plan, collect-and-continue.
	job.SetStatus(StatusExtracting, "extracting")
	payloads := job.Documents()
	job.SetTotalDocuments(len(payloads))

	docs := make([]structtree.Value, 0, len(payloads))
	hadErrors := false
	for i, payload := range payloads {
		doc, err := decodeDocument(job.Filename, payload)
		if err != nil {
			log.Error("document decode failed", "doc", i, "error", err)
			job.AddError(fmt.Sprintf("doc %d: %s", i, err))
			hadErrors = true
			continue
		}
		docs = append(docs, doc)
	}

	extractor := extract.New(plan, w.cfg.MappingDelimiter, "", log)
	results, errs := extractor.ExtractBatch(ctx, docs, w.cfg.MaxConcurrentExtract)

	var records []extract.Record
	for i, rec := range results {
		job.IncrDocumentsExtracted()
		if errs[i] != nil {
			log.Error("extraction failed", "doc", i, "error", errs[i])
			job.AddError(fmt.Sprintf("doc %d: %s", i, errs[i]))
			hadErrors = true
			continue
		}
		records = append(records, rec)
	}
	log.Info("extraction complete", "records", len(records), "errors", hadErrors)

	// Phase 5: Store the structure and the records.
	job.SetStatus(StatusStoring, "storing")
	if err := w.storeWithRetry(ctx, log, func(ctx context.Context) error {
		return w.store.PutStructure(ctx, job.StructureName, plan)
	}); err != nil {
		log.Error("structure store failed", "error", err)
		job.AddError(fmt.Sprintf("store structure: %s", err))
		hadErrors = true
	}

	if len(records) > 0 {
		if err := w.storeWithRetry(ctx, log, func(ctx context.Context) error {
			return w.store.InsertRecords(ctx, job.StructureName, records)
		}); err != nil {
			log.Error("record store failed", "error", err)
			job.AddError(fmt.Sprintf("store records: %s", err))
			hadErrors = true
		} else {
			job.AddRecordsStored(len(records))
		}
	}

	switch {
	case hadErrors && job.Snapshot().Progress.RecordsStored > 0:
		job.SetStatus(StatusPartial, "done")
	case hadErrors:
		job.SetStatus(StatusFailed, "storing")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
}

// storeWithRetry retries transient docstore failures with jittered backoff.
func (w *Worker) storeWithRetry(ctx context.Context, log *slog.Logger, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		log.Warn("retryable store error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// decodeDocument turns one raw payload into the generic value shape the
// extractor consumes. Documents follow the structure source's format family:
// XML sources carry XML documents, everything else carries JSON.
func decodeDocument(sourceFilename string, data []byte) (structtree.Value, error) {
	ext := strings.ToLower(filepath.Ext(sourceFilename))
	switch ext {
	case ".xml", ".xsd":
		m, err := mxj.NewMapXml(data, true)
		if err != nil {
			return structtree.Value{}, fmt.Errorf("decode xml document: %w", err)
		}
		return structtree.FromAny(map[string]any(m))
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return structtree.Value{}, fmt.Errorf("decode json document: %w", err)
		}
		return structtree.FromAny(raw)
	}
}
