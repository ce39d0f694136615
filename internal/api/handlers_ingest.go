package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/parser"
	"github.com/dgallion1/docchunk/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	userID := r.FormValue("user_id")
	if userID == "" {
		jsonError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	chunkCfg, err := s.chunkConfig(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(userID, filename, data)
	if docID := r.FormValue("doc_id"); docID != "" {
		job.DocID = sanitizeFilename(docID)
	}
	job.Title = r.FormValue("title")
	job.Force = r.FormValue("force") == "true"
	job.Chunking = chunkCfg

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"doc_id":   job.DocID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/ingest/%s/status", job.ID),
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
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":   snap.ID,
		"doc_id":   snap.DocID,
		"status":   snap.Status,
		"phase":    snap.Phase,
		"progress": snap.Progress,
	})
}

// handleIngestChunks returns the chunks of a job once it has been chunked.
func (s *Server) handleIngestChunks(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	res, ok := job.Result()
	if !ok {
		snap := job.Snapshot()
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  "chunks not available",
			"job_id": snap.ID,
			"status": snap.Status,
		})
		return
	}

	skipped := res.SkippedTables
	if skipped == nil {
		skipped = []chunker.SkippedTable{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":            job.ID,
		"doc_id":            job.DocID,
		"chunks":            res.Chunks,
		"total_chunks":      res.Summary.TotalChunks,
		"sections_detected": res.Summary.SectionsDetected,
		"skipped_tables":    skipped,
	})
}

func (s *Server) handleBatchIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	userID := r.FormValue("user_id")
	if userID == "" {
		jsonError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	chunkCfg, err := s.chunkConfig(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	force := r.FormValue("force") == "true"

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(files))
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		if !parser.IsSupportedExtension(filename) {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)),
			})
			continue
		}

		f, err := fh.Open()
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    "failed to open file",
			})
			continue
		}

		data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
		f.Close()
		if err != nil || int64(len(data)) > s.cfg.MaxUploadBytes {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    "file too large or read error",
			})
			continue
		}

		job := pipeline.NewJob(userID, filename, data)
		job.Force = force
		job.Chunking = chunkCfg

		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}

		results = append(results, map[string]any{
			"filename": filename,
			"job_id":   job.ID,
			"doc_id":   job.DocID,
			"status":   pipeline.StatusQueued,
			"poll_url": fmt.Sprintf("/api/ingest/%s/status", job.ID),
		})
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}
