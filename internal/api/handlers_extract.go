package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/exstruct-io/exstruct/internal/extract"
	"github.com/exstruct-io/exstruct/internal/structtree"
)

type extractRequest struct {
	Structure string            `json:"structure"`
	Documents []json.RawMessage `json:"documents"`
}

// handleExtract runs synchronous extraction of the posted documents against
// a previously inferred structure.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+1024*1024)

	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Structure == "" {
		jsonError(w, "structure is required", http.StatusBadRequest)
		return
	}
	if len(req.Documents) == 0 {
		jsonError(w, "documents is required", http.StatusBadRequest)
		return
	}

	plan := s.orchestrator.Registry().Get(req.Structure)
	if plan == nil {
		var err error
		plan, err = s.orchestrator.Store().GetStructure(r.Context(), req.Structure)
		if err != nil {
			jsonError(w, "failed to load structure: "+err.Error(), http.StatusBadGateway)
			return
		}
	}
	if plan == nil {
		jsonError(w, "structure not found", http.StatusNotFound)
		return
	}
	if err := plan.FillRoutes(s.cfg.MappingDelimiter); err != nil {
		jsonError(w, "route filling failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	docs := make([]structtree.Value, 0, len(req.Documents))
	for i, raw := range req.Documents {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			jsonError(w, fmt.Sprintf("document %d: %s", i, err), http.StatusBadRequest)
			return
		}
		doc, err := structtree.FromAny(v)
		if err != nil {
			jsonError(w, fmt.Sprintf("document %d: %s", i, err), http.StatusBadRequest)
			return
		}
		docs = append(docs, doc)
	}

	extractor := extract.New(plan, s.cfg.MappingDelimiter, "", s.log)
	records, errs := extractor.ExtractBatch(r.Context(), docs, s.cfg.MaxConcurrentExtract)

	results := make([]map[string]any, len(records))
	for i := range records {
		if errs[i] != nil {
			results[i] = map[string]any{"error": errs[i].Error()}
			continue
		}
		results[i] = map[string]any{"record": records[i]}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"structure": req.Structure,
		"results":   results,
	})
}
