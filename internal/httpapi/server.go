// Package httpapi exposes the engine over a small read-only HTTP surface.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/equityrecon/internal/config"
	"github.com/sawpanic/equityrecon/internal/reconcile"
)

// Server serves reconciliation over HTTP. Read-only by contract: consumers
// get profiles and reports, never a mutation endpoint.
type Server struct {
	engine *reconcile.Engine
	server *http.Server
}

// NewServer wires the router. The prometheus gatherer backs /metrics.
func NewServer(cfg config.HTTPConfig, engine *reconcile.Engine, gatherer prometheus.Gatherer) *Server {
	s := &Server{engine: engine}

	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")

	v1 := router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/reconcile/{symbol}", s.handleReconcile).Methods("GET")

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// Start blocks serving until the listener fails or Stop is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("HTTP server starting")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop drains connections within the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	log.Info().Msg("HTTP server stopping")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReconcile runs a reconciliation. The engine never fails; a total
// failure rides inside the profile, so the HTTP status is 200 regardless.
// ?detailed=true includes the validation report.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	res := s.engine.ReconcileDetailed(r.Context(), symbol)
	if r.URL.Query().Get("detailed") == "true" {
		writeJSON(w, http.StatusOK, res)
		return
	}
	writeJSON(w, http.StatusOK, res.Profile)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Response encode failed")
	}
}
