package pipeline

import (
	"testing"
	"time"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_DifferentInputs(t *testing.T) {
	h1 := ContentHashHex([]byte("aaa"))
	h2 := ContentHashHex([]byte("bbb"))
	if h1 == h2 {
		t.Error("expected different hashes for different inputs")
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusInferring, "inferring"},
		{StatusUnifying, "unifying"},
		{StatusRouting, "routing"},
		{StatusExtracting, "extracting"},
		{StatusStoring, "storing"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_SetStatusFailed(t *testing.T) {
	job := &Job{
		ID:        "test-fail",
		Status:    StatusExtracting,
		UpdatedAt: time.Now(),
	}
	job.SetStatus(StatusFailed, "extraction error")
	if job.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, job.Status)
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("doc 3 failed")
	job.AddError("doc 7 failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "doc 3 failed" {
		t.Errorf("expected first error %q, got %q", "doc 3 failed", snap.Progress.Errors[0])
	}
}

func TestJob_IncrDocumentsExtracted(t *testing.T) {
	job := &Job{ID: "incr-test", UpdatedAt: time.Now()}
	job.IncrDocumentsExtracted()
	job.IncrDocumentsExtracted()
	job.IncrDocumentsExtracted()

	snap := job.Snapshot()
	if snap.Progress.DocumentsExtracted != 3 {
		t.Errorf("expected 3 documents extracted, got %d", snap.Progress.DocumentsExtracted)
	}
}

func TestJob_AddRecordsStored(t *testing.T) {
	job := &Job{ID: "records-test", UpdatedAt: time.Now()}
	job.AddRecordsStored(5)
	job.AddRecordsStored(3)

	snap := job.Snapshot()
	if snap.Progress.RecordsStored != 8 {
		t.Errorf("expected 8 records stored, got %d", snap.Progress.RecordsStored)
	}
}

func TestJob_SetTotalDocuments(t *testing.T) {
	job := &Job{ID: "total-test", UpdatedAt: time.Now()}
	job.SetTotalDocuments(42)

	snap := job.Snapshot()
	if snap.Progress.TotalDocuments != 42 {
		t.Errorf("expected 42 total documents, got %d", snap.Progress.TotalDocuments)
	}
}

func TestJob_SourceData(t *testing.T) {
	job := &Job{ID: "data-test"}
	data := []byte(`{"a": 1}`)
	job.SetSourceData(data)
	got := job.SourceData()
	if string(got) != string(data) {
		t.Errorf("expected source data %q, got %q", data, got)
	}
}

func TestJob_Documents(t *testing.T) {
	job := &Job{ID: "docs-test"}
	job.AddDocument([]byte(`{"a": 1}`))
	job.AddDocument([]byte(`{"a": 2}`))

	docs := job.Documents()
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if string(docs[1]) != `{"a": 2}` {
		t.Errorf("unexpected second document: %q", docs[1])
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now()}
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	// Add a fresh job.
	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}

func TestNewULID_SortableAndUnique(t *testing.T) {
	a := NewULID()
	time.Sleep(2 * time.Millisecond)
	b := NewULID()
	if len(a) != 26 || len(b) != 26 {
		t.Fatalf("expected 26-char IDs, got %d and %d", len(a), len(b))
	}
	if a == b {
		t.Error("expected distinct IDs")
	}
	if a >= b {
		t.Errorf("expected lexicographic ordering to follow time: %q >= %q", a, b)
	}
}
