package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/parser"
	"github.com/dgallion1/docchunk/internal/pathstore"
	"golang.org/x/sync/errgroup"
)

// Worker processes a single document job.
type Worker struct {
	pathstore  *pathstore.Client // nil disables storage
	log        *slog.Logger
	parserOpts parser.Options
	stats      *ProcessingStats

	maxConcurrentStore int
}

func NewWorker(ps *pathstore.Client, log *slog.Logger, parserOpts parser.Options, stats *ProcessingStats, maxStore int) *Worker {
	if maxStore <= 0 {
		maxStore = 1
	}
	return &Worker{
		pathstore:          ps,
		log:                log,
		parserOpts:         parserOpts,
		stats:              stats,
		maxConcurrentStore: maxStore,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "user_id", job.UserID)
	start := time.Now()
	defer job.SetFileData(nil)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.parserOpts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if job.Title != "" {
		doc.Title = job.Title
	}

	// Compute content hash from the parsed text.
	job.ContentHash = ContentHashHex([]byte(doc.Markdown()))

	// Phase 1.5: Dedup check
	if w.pathstore != nil && !job.Force {
		exists, existingDocID, err := w.checkDuplicate(ctx, job)
		if err != nil {
			log.Warn("dedup check failed, proceeding", "error", err)
		} else if exists {
			log.Info("duplicate document, skipping", "existing_doc_id", existingDocID)
			job.SetStatus(StatusDupSkipped, "dedup")
			return
		}
	}

	// Phase 2: Chunk
	job.SetStatus(StatusChunking, "chunking")
	res, err := chunker.ChunkDocument(doc, job.Chunking)
	if err != nil {
		log.Error("chunking failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "chunking")
		return
	}
	for _, st := range res.SkippedTables {
		log.Warn("table skipped", "table", st.Index, "error", st.Error)
		job.AddError(fmt.Sprintf("table %d: %s", st.Index, st.Error))
	}
	job.SetResult(res)
	w.stats.Record(time.Since(start))
	log.Info("chunked document",
		"chunks", len(res.Chunks),
		"sections", res.Summary.SectionsDetected,
		"tables_skipped", len(res.SkippedTables),
	)

	if len(res.Chunks) == 0 {
		log.Warn("no chunks produced")
		job.AddError("no extractable content")
		job.SetStatus(StatusFailed, "chunking")
		return
	}

	if w.pathstore == nil {
		job.SetStatus(StatusCompleted, "done")
		return
	}

	// Phase 3: Store chunks in pathstore.
	job.SetStatus(StatusStoring, "storing")
	docPrefix := fmt.Sprintf("memory/users/%s/documents/%s", job.UserID, job.DocID)
	stored, failed := w.storeChunks(ctx, log, job, docPrefix, res.Chunks)
	log.Info("storage complete", "stored", stored, "total", len(res.Chunks))

	if ctx.Err() != nil {
		job.AddError("canceled: " + ctx.Err().Error())
		job.SetStatus(StatusFailed, "storing")
		return
	}

	// Write document metadata.
	metaErr := withRetry(ctx, log, "meta", func() error {
		return w.pathstore.PutNode(ctx, docPrefix+"/meta", pathstore.NodeRequest{
			Value: map[string]any{
				"filename":          job.Filename,
				"title":             doc.Title,
				"content_hash":      job.ContentHash,
				"page_count":        doc.PageCount,
				"total_chunks":      len(res.Chunks),
				"chunks_stored":     stored,
				"sections_detected": res.Summary.SectionsDetected,
				"target_words":      job.Chunking.TargetWords,
				"overlap_words":     job.Chunking.OverlapWords,
				"created_at":        job.CreatedAt.Format(time.RFC3339),
			},
			MemoryType: "metacognitive",
			Salience:   0.5,
			Source:     "docchunk:" + job.DocID,
		})
	})
	if metaErr != nil {
		log.Error("meta write failed", "error", metaErr)
		job.AddError(fmt.Sprintf("meta: %s", metaErr))
	}

	// Write hash index for dedup.
	hashPath := fmt.Sprintf("memory/users/%s/documents/by_hash/%s/%s", job.UserID, job.ContentHash, job.DocID)
	hashErr := withRetry(ctx, log, "hash_index", func() error {
		return w.pathstore.PutNode(ctx, hashPath, pathstore.NodeRequest{
			Value: map[string]any{
				"filename":   job.Filename,
				"created_at": job.CreatedAt.Format(time.RFC3339),
			},
			MemoryType: "metacognitive",
			Salience:   0.1,
			Source:     "docchunk:" + job.DocID,
		})
	})
	if hashErr != nil {
		log.Error("hash index write failed", "error", hashErr)
	}

	switch {
	case failed > 0 && stored > 0:
		job.SetStatus(StatusPartial, "done")
	case failed > 0:
		job.SetStatus(StatusFailed, "storing")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
}

// storeChunks writes every chunk under docPrefix/chunks with bounded
// concurrency and returns how many were stored and how many failed.
func (w *Worker) storeChunks(ctx context.Context, log *slog.Logger, job *Job, docPrefix string, chunks []doctree.Chunk) (stored, failed int) {
	results := make(chan error, len(chunks))

	var g errgroup.Group
	g.SetLimit(w.maxConcurrentStore)
	for _, c := range chunks {
		g.Go(func() error {
			path := fmt.Sprintf("%s/chunks/%s", docPrefix, newChunkID())
			err := withRetry(ctx, log, "chunk", func() error {
				return w.pathstore.PutNode(ctx, path, pathstore.NodeRequest{
					Value: map[string]any{
						"text":         c.Text,
						"section_type": c.SectionType,
						"chunk_index":  c.Index,
						"word_count":   c.WordCount,
						"doc_id":       job.DocID,
					},
					MemoryType: "semantic",
					Salience:   0.3,
					Source:     "docchunk:" + job.DocID,
				})
			})
			if err != nil {
				log.Error("store failed", "chunk", c.Index, "path", path, "error", err)
				job.AddError(fmt.Sprintf("store chunk %d: %s", c.Index, err))
			} else {
				job.IncrChunksStored()
			}
			results <- err
			return nil
		})
	}
	g.Wait()
	close(results)

	for err := range results {
		if err != nil {
			failed++
		} else {
			stored++
		}
	}
	return stored, failed
}

// checkDuplicate checks if this content hash already exists for the user.
func (w *Worker) checkDuplicate(ctx context.Context, job *Job) (bool, string, error) {
	hashPrefix := fmt.Sprintf("memory/users/%s/documents/by_hash/%s", job.UserID, job.ContentHash)
	children, err := w.pathstore.ListChildren(ctx, hashPrefix, 1)
	if err != nil {
		return false, "", err
	}
	if len(children) > 0 {
		return true, lastKeySegment(children[0].Key), nil
	}
	return false, "", nil
}

// lastKeySegment returns the final component of a pathstore key, which may
// be reported with either "." or "/" separators.
func lastKeySegment(key string) string {
	if i := strings.LastIndexAny(key, "./"); i >= 0 {
		return key[i+1:]
	}
	return key
}
