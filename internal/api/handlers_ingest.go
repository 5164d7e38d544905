package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/exstruct-io/exstruct/internal/infer"
	"github.com/exstruct-io/exstruct/internal/pipeline"
)

// handleIngest accepts a structured source file plus zero or more data
// documents, queues a pipeline job, and returns immediately with a job ID
// the caller can poll.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+1024*1024)

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
	if !infer.IsSupportedExtension(filename) {
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

	structureName := r.FormValue("structure")
	if structureName == "" {
		structureName = strings.TrimSuffix(filename, filepath.Ext(filename))
	}

	now := time.Now()
	job := &pipeline.Job{
		ID:            pipeline.NewULID(),
		StructureName: structureName,
		Status:        pipeline.StatusQueued,
		Phase:         "queued",
		Filename:      filename,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	job.SetSourceData(data)

	// Optional data documents to extract once the structure is inferred.
	for _, fh := range r.MultipartForm.File["documents"] {
		f, err := fh.Open()
		if err != nil {
			jsonError(w, "failed to open document "+sanitizeFilename(fh.Filename), http.StatusBadRequest)
			return
		}
		doc, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
		f.Close()
		if err != nil || int64(len(doc)) > s.cfg.MaxUploadBytes {
			jsonError(w, "document too large or unreadable: "+sanitizeFilename(fh.Filename), http.StatusRequestEntityTooLarge)
			return
		}
		job.AddDocument(doc)
	}

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":    job.ID,
		"structure": job.StructureName,
		"status":    job.Status,
		"poll_url":  fmt.Sprintf("/api/ingest/%s/status", job.ID),
	})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":    snap.ID,
		"structure": snap.StructureName,
		"status":    snap.Status,
		"phase":     snap.Phase,
		"progress":  snap.Progress,
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
