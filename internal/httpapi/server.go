package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/netview/gateway/internal/domain"
	"github.com/netview/gateway/internal/httpapi/middleware"
	"github.com/netview/gateway/internal/probe"
	"github.com/netview/gateway/internal/repo"
	"github.com/netview/gateway/internal/syncer"
)

const version = "1.0.0"

// Syncer is the slice of the reconciler the admin surface needs.
type Syncer interface {
	SyncResults(ctx context.Context) int
	Stats(ctx context.Context) (syncer.Stats, error)
}

// ProbeSource proxies the backend's assigned probe list.
type ProbeSource interface {
	FetchProbes(ctx context.Context) ([]domain.ProbeSpec, error)
}

// Identity is echoed on /health and /stats.
type Identity struct {
	ID   string
	Type string
}

// Server is the thin administrative surface: read access to stored results
// and stats, plus manual execute/sync triggers. All real work happens in the
// engine, store and reconciler it wraps.
type Server struct {
	Logger   *zap.Logger
	Results  repo.ResultStore
	Engine   *probe.Engine
	Sync     Syncer
	Source   ProbeSource
	Identity Identity

	Limits struct {
		AdminKeys []string
		RPM       int
		Burst     int
	}
}

func NewServer(l *zap.Logger, rs repo.ResultStore, e *probe.Engine, s Syncer, src ProbeSource, id Identity) *Server {
	return &Server{Logger: l, Results: rs, Engine: e, Sync: s, Source: src, Identity: id}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)
	r.Use(middleware.RateLimit(s.Limits.RPM, s.Limits.Burst))

	r.Get("/health", s.handleHealth)
	r.Get("/probes", s.handleProbes)
	r.Get("/results", s.handleResults)
	r.Get("/stats", s.handleStats)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(s.Limits.AdminKeys))
		r.Post("/execute", s.handleExecute)
		r.Post("/sync", s.handleSync)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"gateway_id":   s.Identity.ID,
		"gateway_type": s.Identity.Type,
		"version":      version,
	})
}

func (s *Server) handleProbes(w http.ResponseWriter, r *http.Request) {
	probes, err := s.Source.FetchProbes(r.Context())
	if err != nil {
		s.Logger.Warn("probes_proxy_error", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"probes": probes,
		"count":  len(probes),
	})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var spec domain.ProbeSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil || spec.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid probe payload"})
		return
	}

	res := s.Engine.Execute(r.Context(), spec)
	if err := s.Results.Append(r.Context(), &res); err != nil {
		s.Logger.Warn("manual_result_append_error", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	results, err := s.Results.List(r.Context(), limit)
	if err != nil {
		s.Logger.Warn("results_list_error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "list error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"count":   len(results),
	})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	n := s.Sync.SyncResults(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      fmt.Sprintf("Synced %d results", n),
		"synced_count": n,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Sync.Stats(r.Context())
	if err != nil {
		s.Logger.Warn("stats_error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "stats error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"gateway_id":   s.Identity.ID,
		"gateway_type": s.Identity.Type,
		"uptime":       stats.UptimeSeconds,
		"executions":   s.Engine.Counters(),
		"results":      stats.Counts,
		"last_sync":    stats.LastSync,
		"last_heartbeat": stats.LastHeartbeat,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
