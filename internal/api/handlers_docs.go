package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgallion1/docchunk/internal/pathstore"
	"github.com/go-chi/chi/v5"
)

// sinkClient returns the pathstore client, writing a 503 when the chunk
// sink is disabled.
func (s *Server) sinkClient(w http.ResponseWriter) (*pathstore.Client, bool) {
	ps := s.orchestrator.PathstoreClient()
	if ps == nil {
		jsonError(w, "document storage is disabled", http.StatusServiceUnavailable)
		return nil, false
	}
	return ps, true
}

// handleListDocuments lists all documents for a user.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	ps, ok := s.sinkClient(w)
	if !ok {
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		jsonError(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}

	prefix := fmt.Sprintf("memory/users/%s/documents", userID)
	children, err := ps.ListChildren(r.Context(), prefix, 200)
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusBadGateway)
		return
	}

	// Filter to only meta nodes.
	docs := []map[string]any{}
	for _, child := range children {
		if strings.HasSuffix(child.Key, ".meta") || strings.HasSuffix(child.Key, "/meta") {
			docs = append(docs, map[string]any{
				"key":   child.Key,
				"value": child.Value,
			})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleDeleteDocument deletes a document, its chunks and its hash index
// entry.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	ps, ok := s.sinkClient(w)
	if !ok {
		return
	}
	docID := chi.URLParam(r, "docID")
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		jsonError(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	docPrefix := fmt.Sprintf("memory/users/%s/documents/%s", userID, docID)

	chunks, err := ps.ListChildren(ctx, docPrefix+"/chunks", 10000)
	if err != nil {
		jsonError(w, "failed to list chunks: "+err.Error(), http.StatusBadGateway)
		return
	}

	// The hash index lives outside the document prefix, so it goes first
	// while the meta node still names the hash.
	deleteHashIndex(ctx, ps, userID, docID, docPrefix)

	if err := ps.DeleteNode(ctx, docPrefix, true); err != nil {
		s.log.Error("delete document failed", "doc_id", docID, "error", err)
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":         docID,
		"chunks_deleted": len(chunks),
	})
}

func deleteHashIndex(ctx context.Context, ps *pathstore.Client, userID, docID, docPrefix string) {
	// Read the meta to get the content hash.
	meta, err := ps.GetNode(ctx, docPrefix+"/meta")
	if err != nil || meta == nil {
		return
	}
	metaMap, ok := meta.Value.(map[string]any)
	if !ok {
		return
	}
	hash, _ := metaMap["content_hash"].(string)
	if hash == "" {
		return
	}
	hashPath := fmt.Sprintf("memory/users/%s/documents/by_hash/%s/%s", userID, hash, docID)
	ps.DeleteNode(ctx, hashPath, false)
}
