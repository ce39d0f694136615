package pipeline

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/parser"
	"github.com/dgallion1/docchunk/internal/pathstore/pathstoretest"
)

const paperMD = `# A Paper

## Abstract

We summarize the approach briefly.

## Methods

We trained a model on data.
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func noBackoff(t *testing.T) {
	t.Helper()
	prev := backoff
	backoff = func(int) time.Duration { return time.Millisecond }
	t.Cleanup(func() { backoff = prev })
}

func TestWorker_ChunksWithoutSink(t *testing.T) {
	stats := NewProcessingStats(time.Hour)
	w := NewWorker(nil, testLogger(), parser.Options{}, stats, 4)
	job := NewJob("u1", "paper.md", []byte(paperMD))

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected status %q, got %q (errors: %v)", StatusCompleted, snap.Status, snap.Progress.Errors)
	}
	res, ok := job.Result()
	if !ok {
		t.Fatal("expected a chunking result")
	}
	if len(res.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(res.Chunks))
	}
	if res.Chunks[0].SectionType != doctree.SectionAbstract || res.Chunks[1].SectionType != doctree.SectionMethods {
		t.Errorf("unexpected sections: %q, %q", res.Chunks[0].SectionType, res.Chunks[1].SectionType)
	}
	if res.Chunks[0].Text != "Abstract We summarize the approach briefly." {
		t.Errorf("unexpected first chunk: %q", res.Chunks[0].Text)
	}
	if job.FileData() != nil {
		t.Error("expected file data to be released")
	}
	if stats.Snapshot().Count != 1 {
		t.Errorf("expected one processing sample, got %d", stats.Snapshot().Count)
	}
}

func TestWorker_StoresChunksAndMeta(t *testing.T) {
	srv := pathstoretest.NewServer("k")
	defer srv.Close()

	w := NewWorker(srv.Client(), testLogger(), parser.Options{}, nil, 2)
	job := NewJob("u1", "paper.md", []byte(paperMD))
	job.DocID = "doc1"

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected status %q, got %q (errors: %v)", StatusCompleted, snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.ChunksStored != 2 {
		t.Errorf("expected 2 chunks stored, got %d", snap.Progress.ChunksStored)
	}

	chunkKeys := srv.Keys("memory/users/u1/documents/doc1/chunks")
	if len(chunkKeys) != 2 {
		t.Fatalf("expected 2 chunk nodes, got %v", chunkKeys)
	}
	meta, ok := srv.Node("memory/users/u1/documents/doc1/meta")
	if !ok {
		t.Fatal("expected meta node")
	}
	if m, _ := meta.(map[string]any); m["content_hash"] != job.ContentHash {
		t.Errorf("expected meta content hash %q, got %v", job.ContentHash, m["content_hash"])
	}
	if keys := srv.Keys("memory/users/u1/documents/by_hash/" + job.ContentHash); len(keys) != 1 {
		t.Errorf("expected one hash index entry, got %v", keys)
	}
}

func TestWorker_DuplicateSkippedUnlessForced(t *testing.T) {
	srv := pathstoretest.NewServer("k")
	defer srv.Close()
	w := NewWorker(srv.Client(), testLogger(), parser.Options{}, nil, 2)

	first := NewJob("u1", "paper.md", []byte(paperMD))
	w.Process(context.Background(), first)
	if s := first.Snapshot().Status; s != StatusCompleted {
		t.Fatalf("expected first job completed, got %q", s)
	}

	second := NewJob("u1", "copy.md", []byte(paperMD))
	w.Process(context.Background(), second)
	if s := second.Snapshot().Status; s != StatusDupSkipped {
		t.Errorf("expected %q, got %q", StatusDupSkipped, s)
	}

	forced := NewJob("u1", "copy.md", []byte(paperMD))
	forced.Force = true
	w.Process(context.Background(), forced)
	if s := forced.Snapshot().Status; s != StatusCompleted {
		t.Errorf("expected forced job completed, got %q", s)
	}

	otherUser := NewJob("u2", "paper.md", []byte(paperMD))
	w.Process(context.Background(), otherUser)
	if s := otherUser.Snapshot().Status; s != StatusCompleted {
		t.Errorf("expected another user's copy completed, got %q", s)
	}
}

func TestWorker_RetriesTransientStoreErrors(t *testing.T) {
	noBackoff(t)
	srv := pathstoretest.NewServer("k")
	defer srv.Close()
	srv.FailNextPuts(2)

	w := NewWorker(srv.Client(), testLogger(), parser.Options{}, nil, 1)
	job := NewJob("u1", "paper.md", []byte(paperMD))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected status %q, got %q (errors: %v)", StatusCompleted, snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.ChunksStored != 2 {
		t.Errorf("expected 2 chunks stored, got %d", snap.Progress.ChunksStored)
	}
}

func TestWorker_PersistentStoreErrorsFail(t *testing.T) {
	noBackoff(t)
	srv := pathstoretest.NewServer("k")
	defer srv.Close()
	srv.FailNextPuts(1000)

	w := NewWorker(srv.Client(), testLogger(), parser.Options{}, nil, 2)
	job := NewJob("u1", "paper.md", []byte(paperMD))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, snap.Status)
	}
	if snap.Progress.ChunksStored != 0 {
		t.Errorf("expected 0 chunks stored, got %d", snap.Progress.ChunksStored)
	}
}

func TestWorker_UnsupportedFormat(t *testing.T) {
	w := NewWorker(nil, testLogger(), parser.Options{}, nil, 1)
	job := NewJob("u1", "image.png", []byte("png"))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "parsing" {
		t.Errorf("expected failed in parsing, got %q/%q", snap.Status, snap.Phase)
	}
}

func TestWorker_EmptyDocumentFails(t *testing.T) {
	w := NewWorker(nil, testLogger(), parser.Options{}, nil, 1)
	job := NewJob("u1", "empty.txt", []byte("   \n\n"))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("expected status %q, got %q", StatusFailed, snap.Status)
	}
	if len(snap.Progress.Errors) != 1 || snap.Progress.Errors[0] != "no extractable content" {
		t.Errorf("unexpected errors: %v", snap.Progress.Errors)
	}
}

func TestWorker_InvalidChunkConfigFails(t *testing.T) {
	w := NewWorker(nil, testLogger(), parser.Options{}, nil, 1)
	job := NewJob("u1", "paper.md", []byte(paperMD))
	job.Chunking.OverlapWords = job.Chunking.TargetWords

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "chunking" {
		t.Errorf("expected failed in chunking, got %q/%q", snap.Status, snap.Phase)
	}
}

func TestWorker_SkippedTableDoesNotFailJob(t *testing.T) {
	// The second batch holds a row wider than the header.
	csv := "a,b\n1,2\n"
	var b strings.Builder
	b.WriteString(csv)
	for range 19 {
		b.WriteString("3,4\n")
	}
	b.WriteString("5,6,7\n")

	w := NewWorker(nil, testLogger(), parser.Options{}, nil, 1)
	job := NewJob("u1", "data.csv", []byte(b.String()))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected status %q, got %q (errors: %v)", StatusCompleted, snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.TotalChunks != 1 || snap.Progress.TablesSkipped != 1 {
		t.Errorf("expected 1 chunk and 1 skipped table, got %d/%d", snap.Progress.TotalChunks, snap.Progress.TablesSkipped)
	}
	if len(snap.Progress.Errors) != 1 || !strings.HasPrefix(snap.Progress.Errors[0], "table 1:") {
		t.Errorf("unexpected errors: %v", snap.Progress.Errors)
	}
}

func TestLastKeySegment(t *testing.T) {
	tests := map[string]string{
		"memory.users.u1.documents.by_hash.abc.doc1": "doc1",
		"memory/users/u1/documents/by_hash/abc/doc2": "doc2",
		"plain": "plain",
	}
	for in, want := range tests {
		if got := lastKeySegment(in); got != want {
			t.Errorf("lastKeySegment(%q): expected %q, got %q", in, want, got)
		}
	}
}
