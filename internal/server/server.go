// Package server exposes the worker's operational HTTP surface: liveness,
// a database health probe, and outcome counters. It serves operators only
// and plays no part in job processing.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akdino27/invoice-poc/internal/repository"
	"github.com/akdino27/invoice-poc/internal/worker"
)

// Server wraps an http.Server with the worker's routes mounted.
type Server struct {
	http *http.Server
	log  *slog.Logger
}

// New builds the operational server. stats may come from a running
// supervisor; db is pinged by the health probe; jobs, when non-nil, adds
// queue depth per status to the stats payload.
func New(addr string, db *pgxpool.Pool, jobs repository.JobRepository, stats *worker.Stats, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", healthHandler(db))
	r.Get("/stats", statsHandler(stats, jobs))

	return &Server{
		http: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		log: logger,
	}
}

// Start serves until the listener closes. http.ErrServerClosed is the normal
// shutdown signal and is not returned as an error.
func (s *Server) Start() error {
	s.log.Info("http.listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		if db != nil {
			if err := repository.HealthCheck(r.Context(), db, 2*time.Second); err != nil {
				status["status"] = "degraded"
				status["database"] = err.Error()
				code = http.StatusServiceUnavailable
			} else {
				status["database"] = "ok"
			}
		}
		writeJSON(w, code, status)
	}
}

type statsResponse struct {
	worker.StatsSnapshot
	Queue map[string]int64 `json:"queue,omitempty"`
}

func statsHandler(stats *worker.Stats, jobs repository.JobRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := statsResponse{StatsSnapshot: stats.Snapshot()}
		if jobs != nil {
			if counts, err := jobs.CountByStatus(r.Context()); err == nil {
				resp.Queue = counts
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
