package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/exstruct-io/exstruct/internal/infer"
	"github.com/exstruct-io/exstruct/internal/structtree"
)

// handleInferStructure infers a structure tree from an uploaded source file,
// folds it into the accumulated structure of the same name, and returns the
// unified, route-filled tree.
func (s *Server) handleInferStructure(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("source")
	if err != nil {
		jsonError(w, "source is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	ex, err := infer.ForFile(filename)
	if err != nil {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read source", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("source exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	name := r.FormValue("structure")
	if name == "" {
		name = strings.TrimSuffix(filename, filepath.Ext(filename))
	}

	opts := infer.Options{
		ExternalIDs:   s.cfg.ExternalIDs,
		IgnoredFields: s.cfg.IgnoredFields,
		Delimiter:     s.cfg.MappingDelimiter,
		StructureName: name,
		SchemaDir:     s.cfg.SchemaDir,
	}
	tree, err := ex.BuildStructure(bytes.NewReader(data), opts)
	if err != nil {
		jsonError(w, "inference failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	unified := s.orchestrator.Registry().Fold(name, tree, structtree.ExtractionPriorities)
	if err := unified.FillRoutes(s.cfg.MappingDelimiter); err != nil {
		jsonError(w, "route filling failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if err := s.orchestrator.Store().PutStructure(r.Context(), name, unified); err != nil {
		s.log.Error("structure store failed", "structure", name, "error", err)
		jsonError(w, "failed to persist structure", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"structure": name,
		"tree":      unified,
	})
}

// handleListStructures lists the names of all structures held in the
// registry.
func (s *Server) handleListStructures(w http.ResponseWriter, r *http.Request) {
	names := s.orchestrator.Registry().Names()
	if names == nil {
		names = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"structures": names})
}

// handleGetStructure returns the current unified tree for one structure.
// Falls back to the docstore when the registry has not seen the name since
// startup.
func (s *Server) handleGetStructure(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	tree := s.orchestrator.Registry().Get(name)
	if tree == nil {
		var err error
		tree, err = s.orchestrator.Store().GetStructure(r.Context(), name)
		if err != nil {
			jsonError(w, "failed to load structure: "+err.Error(), http.StatusBadGateway)
			return
		}
	}
	if tree == nil {
		jsonError(w, "structure not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"structure": name,
		"tree":      tree,
	})
}
