package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// JobStatus represents the state of an ingestion job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusInferring  JobStatus = "inferring"
	StatusUnifying   JobStatus = "unifying"
	StatusRouting    JobStatus = "routing"
	StatusExtracting JobStatus = "extracting"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
)

// Job tracks one ingestion: a structure source plus the documents to extract
// against the inferred structure.
type Job struct {
	mu sync.Mutex

	ID            string `json:"job_id"`
	StructureName string `json:"structure_name"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	sourceData []byte
	docData    [][]byte
	errors     []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalDocuments     int      `json:"total_documents"`
	DocumentsExtracted int      `json:"documents_extracted"`
	RecordsStored      int      `json:"records_stored"`
	Errors             []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// IncrDocumentsExtracted atomically increments the extracted counter.
func (j *Job) IncrDocumentsExtracted() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.DocumentsExtracted++
	j.UpdatedAt = time.Now()
}

// AddRecordsStored records how many records reached the store.
func (j *Job) AddRecordsStored(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.RecordsStored += n
	j.UpdatedAt = time.Now()
}

// SetTotalDocuments records total document count.
func (j *Job) SetTotalDocuments(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalDocuments = n
	j.UpdatedAt = time.Now()
}

// SetSourceData sets the raw structure-source bytes for processing.
func (j *Job) SetSourceData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.sourceData = data
}

// SourceData returns the raw structure-source bytes.
func (j *Job) SourceData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.sourceData
}

// AddDocument appends one raw document payload.
func (j *Job) AddDocument(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.docData = append(j.docData, data)
}

// Documents returns the raw document payloads.
func (j *Job) Documents() [][]byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.docData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID            string    `json:"job_id"`
	StructureName string    `json:"structure_name"`
	Status        JobStatus `json:"status"`
	Phase         string    `json:"phase"`
	Filename      string    `json:"filename"`
	Progress      Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:            j.ID,
		StructureName: j.StructureName,
		Status:        j.Status,
		Phase:         j.Phase,
		Filename:      j.Filename,
		Progress: Progress{
			TotalDocuments:     j.Progress.TotalDocuments,
			DocumentsExtracted: j.Progress.DocumentsExtracted,
			RecordsStored:      j.Progress.RecordsStored,
			Errors:             errs,
		},
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
