package pipeline

import (
	"testing"
	"time"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/doctree"
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

func TestContentHashHex_EmptyInput(t *testing.T) {
	h := ContentHashHex([]byte{})
	// SHA-256 of empty input is well-known.
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if h != want {
		t.Errorf("expected hash %q, got %q", want, h)
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
		{StatusParsing, "parsing document"},
		{StatusChunking, "splitting into chunks"},
		{StatusStoring, "storing results"},
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
		Status:    StatusStoring,
		UpdatedAt: time.Now(),
	}
	job.SetStatus(StatusFailed, "storing")
	if job.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, job.Status)
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("chunk 3 failed")
	job.AddError("chunk 7 failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "chunk 3 failed" {
		t.Errorf("expected first error %q, got %q", "chunk 3 failed", snap.Progress.Errors[0])
	}
}

func TestJob_IncrChunksStored(t *testing.T) {
	job := &Job{ID: "incr-test", UpdatedAt: time.Now()}
	job.IncrChunksStored()
	job.IncrChunksStored()
	job.IncrChunksStored()

	snap := job.Snapshot()
	if snap.Progress.ChunksStored != 3 {
		t.Errorf("expected 3 chunks stored, got %d", snap.Progress.ChunksStored)
	}
}

func TestJob_SetResult(t *testing.T) {
	job := &Job{ID: "result-test", UpdatedAt: time.Now()}
	if _, ok := job.Result(); ok {
		t.Fatal("expected no result before chunking")
	}

	chunks := []doctree.Chunk{
		{Index: 0, Text: "a", SectionType: doctree.SectionAbstract, WordCount: 1},
		{Index: 1, Text: "b", SectionType: doctree.SectionResults, WordCount: 1},
	}
	job.SetResult(chunker.Result{
		Chunks:        chunks,
		Summary:       chunker.Summarize(chunks),
		SkippedTables: []chunker.SkippedTable{{Index: 3, Error: "malformed table"}},
	})

	snap := job.Snapshot()
	if snap.Progress.TotalChunks != 2 {
		t.Errorf("expected 2 total chunks, got %d", snap.Progress.TotalChunks)
	}
	if snap.Progress.TablesSkipped != 1 {
		t.Errorf("expected 1 skipped table, got %d", snap.Progress.TablesSkipped)
	}
	if len(snap.Progress.SectionsDetected) != 2 || snap.Progress.SectionsDetected[1] != doctree.SectionResults {
		t.Errorf("unexpected sections: %v", snap.Progress.SectionsDetected)
	}

	res, ok := job.Result()
	if !ok || len(res.Chunks) != 2 {
		t.Errorf("expected stored result with 2 chunks, got %v %d", ok, len(res.Chunks))
	}
}

func TestNewJob(t *testing.T) {
	job := NewJob("u1", "paper.pdf", []byte("hello world"))
	if job.ID == "" {
		t.Error("expected a job ID")
	}
	if job.DocID != "b94d27b9934d3e08" {
		t.Errorf("expected doc ID from content hash, got %q", job.DocID)
	}
	if job.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, job.Status)
	}
	if job.Chunking != chunker.DefaultConfig() {
		t.Errorf("expected default chunking, got %+v", job.Chunking)
	}
	if string(job.FileData()) != "hello world" {
		t.Errorf("expected file data to be kept, got %q", job.FileData())
	}

	other := NewJob("u1", "paper.pdf", []byte("hello world"))
	if other.ID == job.ID {
		t.Error("expected distinct job IDs")
	}
}

func TestJobStatus_Done(t *testing.T) {
	for _, s := range []JobStatus{StatusCompleted, StatusFailed, StatusPartial, StatusDupSkipped} {
		if !s.Done() {
			t.Errorf("expected %q to be terminal", s)
		}
	}
	for _, s := range []JobStatus{StatusQueued, StatusParsing, StatusChunking, StatusStoring} {
		if s.Done() {
			t.Errorf("expected %q to be non-terminal", s)
		}
	}
}

func TestJob_FileData(t *testing.T) {
	job := &Job{ID: "data-test"}
	data := []byte("file content here")
	job.SetFileData(data)
	got := job.FileData()
	if string(got) != string(data) {
		t.Errorf("expected file data %q, got %q", data, got)
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
	if snap.Progress.SectionsDetected == nil {
		t.Error("expected non-nil sections slice in snapshot")
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
