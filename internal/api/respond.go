package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/parser"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// readUpload parses a single-file multipart request and returns the
// sanitized filename and file bytes. On failure it writes the error
// response and returns ok=false; on success the caller owns
// r.MultipartForm cleanup.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (filename string, data []byte, ok bool) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return "", nil, false
	}

	fail := func(msg string, code int) (string, []byte, bool) {
		r.MultipartForm.RemoveAll()
		jsonError(w, msg, code)
		return "", nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return fail("file is required: "+err.Error(), http.StatusBadRequest)
	}
	defer file.Close()

	filename = sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		return fail(fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
	}

	data, err = io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return fail("failed to read file", http.StatusInternalServerError)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return fail(fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
	}
	return filename, data, true
}

// chunkConfig reads the optional target_words and overlap_words form
// values over the configured defaults.
func (s *Server) chunkConfig(r *http.Request) (chunker.Config, error) {
	cfg := s.cfg.Chunking()
	for _, f := range []struct {
		name string
		dst  *int
	}{
		{"target_words", &cfg.TargetWords},
		{"overlap_words", &cfg.OverlapWords},
	} {
		v := r.FormValue(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%w: %s=%q is not an integer", chunker.ErrInvalidConfig, f.name, v)
		}
		*f.dst = n
	}
	return cfg, cfg.Validate()
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
