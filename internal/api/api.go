// Package api implements the trawl authority HTTP server.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/sprite-ai/trawl/internal/checklist"
	"github.com/sprite-ai/trawl/internal/repo"
)

// Server exposes a repository and its checklist over HTTP, plus a
// websocket event feed.
type Server struct {
	addr   string
	mux    *http.ServeMux
	server *http.Server

	repo *repo.Repo
	list *checklist.DB
	hub  *hub

	watcher *watcher
}

// New creates a server for the given repository and checklist.
func New(addr string, r *repo.Repo, list *checklist.DB) *Server {
	s := &Server{
		addr: addr,
		repo: r,
		list: list,
		hub:  newHub(),
	}
	s.mux = http.NewServeMux()
	s.registerRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/search", s.handleSearch)
	s.mux.HandleFunc("GET /api/file", s.handleReadFile)
	s.mux.HandleFunc("POST /api/file", s.handleSaveFile)
	s.mux.HandleFunc("GET /api/checklist", s.handleGetChecklist)
	s.mux.HandleFunc("PATCH /api/checklist", s.handlePatchChecklist)
	s.mux.HandleFunc("GET /api/ws", s.handleWebSocket)
}

// Watch starts broadcasting external artifact changes to websocket clients.
func (s *Server) Watch(debounce time.Duration) error {
	w, err := newWatcher(s.repo, s.hub, debounce)
	if err != nil {
		return err
	}
	s.watcher = w
	return nil
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	log.Printf("trawl authority listening on %s (root %s)", s.addr, s.repo.Root())
	return s.server.ListenAndServe()
}

// Close stops the watcher and the listener.
func (s *Server) Close() error {
	if s.watcher != nil {
		s.watcher.stop()
	}
	return s.server.Close()
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// readJSON decodes a JSON request body into v.
func readJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("empty request body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
