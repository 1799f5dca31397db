package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"steward/internal/report"
	"steward/internal/store"
)

const defaultListLimit = 50

// Server exposes a read-only JSON view of the store.
type Server struct {
	Addr  string
	Store *store.Store
	Now   func() time.Time
}

// New returns a server bound to addr.
func New(st *store.Store, addr string) *Server {
	return &Server{
		Addr:  addr,
		Store: st,
		Now:   time.Now,
	}
}

// Handler builds the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/goals", s.handleGoals)
	mux.HandleFunc("/api/v1/decisions", s.handleDecisions)
	mux.HandleFunc("/api/v1/metrics", s.handleMetrics)
	return mux
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.Addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown status server: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("status server: %w", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	status, err := report.Build(s.Store, s.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, status)
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	status := store.GoalStatus(r.URL.Query().Get("status"))
	if status != "" && !store.ValidGoalStatus(status) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid status: %q", status))
		return
	}
	goals, err := s.Store.ListGoals(status, queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, map[string]any{"goals": goalsJSON(goals)})
}

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	decisions, err := s.Store.ListDecisions(queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]map[string]any, 0, len(decisions))
	for _, d := range decisions {
		out = append(out, map[string]any{
			"id":         d.ID,
			"type":       d.Type,
			"context":    d.Context,
			"reasoning":  d.Reasoning,
			"confidence": d.Confidence,
			"created_at": d.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, map[string]any{"decisions": out})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	metrics, err := s.Store.ListMetrics(r.URL.Query().Get("name"), queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]map[string]any, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, map[string]any{
			"name":       m.Name,
			"value":      m.Value,
			"context":    m.Context,
			"created_at": m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, map[string]any{"metrics": out})
}

func goalsJSON(goals []store.Goal) []map[string]any {
	out := make([]map[string]any, 0, len(goals))
	for _, g := range goals {
		entry := map[string]any{
			"id":          g.ID,
			"title":       g.Title,
			"description": g.Description,
			"priority":    g.Priority,
			"status":      string(g.Status),
			"progress":    g.Progress,
			"created_at":  g.CreatedAt.UTC().Format(time.RFC3339),
		}
		if g.TargetAt != nil {
			entry["target_at"] = g.TargetAt.UTC().Format(time.RFC3339)
		}
		out = append(out, entry)
	}
	return out
}

func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	return limit
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
