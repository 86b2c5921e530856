// Package api exposes completed runs over HTTP for inspection while a batch
// host stays up. Read-only: runs are fed by the orchestrator, never mutated.
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"godla/domain/absorber"
	"godla/domain/core"
	"godla/internal/search"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RunSummary is the run-level view returned by GET /runs/{id}.
type RunSummary struct {
	RunID      core.RunID    `json:"run_id"`
	Processed  int           `json:"processed"`
	Skipped    int           `json:"skipped"`
	Detections int           `json:"detections"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	StartedAt  time.Time     `json:"started_at"`
}

// RunStore keeps completed batch results in memory, keyed by run id.
type RunStore struct {
	mu   sync.RWMutex
	runs map[core.RunID]*storedRun
}

type storedRun struct {
	summary    RunSummary
	detections []absorber.Detection
}

// NewRunStore creates an empty store.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[core.RunID]*storedRun)}
}

// Add records one completed batch result.
func (s *RunStore) Add(result *search.BatchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[result.RunID] = &storedRun{
		summary: RunSummary{
			RunID:      result.RunID,
			Processed:  result.Processed,
			Skipped:    result.Skipped,
			Detections: len(result.Detections),
			Elapsed:    result.Elapsed,
			StartedAt:  time.Now().Add(-result.Elapsed),
		},
		detections: result.Detections,
	}
}

// Summary looks up one run's summary.
func (s *RunStore) Summary(id core.RunID) (RunSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return RunSummary{}, false
	}
	return run.summary, true
}

// Detections looks up one run's detection rows.
func (s *RunStore) Detections(id core.RunID) ([]absorber.Detection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, false
	}
	return run.detections, true
}

// Server serves the run inspection API.
type Server struct {
	router *chi.Mux
	store  *RunStore
}

// NewServer builds the router over a run store.
func NewServer(store *RunStore) *Server {
	s := &Server{
		router: chi.NewRouter(),
		store:  store,
	}
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Get("/runs/{id}", s.handleRun)
	s.router.Get("/runs/{id}/detections", s.handleDetections)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid run id", http.StatusBadRequest)
		return
	}
	summary, ok := s.store.Summary(id)
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, summary)
}

func (s *Server) handleDetections(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid run id", http.StatusBadRequest)
		return
	}
	detections, ok := s.store.Detections(id)
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, detections)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
	}
}
