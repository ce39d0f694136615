// Package pathstoretest provides an in-memory pathstore server for tests.
package pathstoretest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dgallion1/docchunk/internal/pathstore"
)

// Server emulates the subset of the pathstore KV API the client uses.
// Keys are stored with "/" separators and reported with "." separators,
// as the real service does.
type Server struct {
	srv    *httptest.Server
	apiKey string

	mu       sync.Mutex
	nodes    map[string]any
	failPuts int
}

func NewServer(apiKey string) *Server {
	s := &Server{apiKey: apiKey, nodes: make(map[string]any)}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL is the base URL of the server.
func (s *Server) URL() string { return s.srv.URL }

// Client returns a pathstore client pointed at the server.
func (s *Server) Client() *pathstore.Client {
	return pathstore.NewClient(s.srv.URL, s.apiKey)
}

func (s *Server) Close() { s.srv.Close() }

// FailNextPuts makes the next n PUT requests answer 503.
func (s *Server) FailNextPuts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPuts = n
}

// Put seeds a node.
func (s *Server) Put(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[key] = value
}

// Node returns the stored value for key.
func (s *Server) Node(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.nodes[key]
	return v, ok
}

// Keys returns the sorted keys under prefix.
func (s *Server) Keys(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keysLocked(prefix)
}

func (s *Server) keysLocked(prefix string) []string {
	var keys []string
	for k := range s.nodes {
		if strings.HasPrefix(k, prefix+"/") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+s.apiKey {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	key, ok := strings.CutPrefix(r.URL.Path, "/kv/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		if s.failPuts > 0 {
			s.failPuts--
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		var req pathstore.NodeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.nodes[key] = req.Value
		w.WriteHeader(http.StatusCreated)

	case http.MethodGet:
		if prefix, ok := strings.CutSuffix(key, "/*"); ok {
			keys := s.keysLocked(prefix)
			if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n < len(keys) {
				keys = keys[:n]
			}
			nodes := make([]pathstore.ListChildrenResponse, 0, len(keys))
			for _, k := range keys {
				nodes = append(nodes, pathstore.ListChildrenResponse{Key: dotted(k), Value: s.nodes[k]})
			}
			json.NewEncoder(w).Encode(map[string]any{"nodes": nodes})
			return
		}
		v, ok := s.nodes[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(pathstore.NodeResponse{Key: dotted(key), Value: v})

	case http.MethodDelete:
		if r.URL.Query().Get("children") == "true" {
			for _, k := range s.keysLocked(key) {
				delete(s.nodes, k)
			}
		}
		delete(s.nodes, key)
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func dotted(key string) string {
	return strings.ReplaceAll(key, "/", ".")
}
