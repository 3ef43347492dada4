// Package server exposes the dashboard API over HTTP: daily picks,
// bet history and performance stats, plus the WebSocket stream and
// Prometheus metrics.
package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tenntrend/engine/pkg/history"
	"github.com/tenntrend/engine/pkg/metrics"
	"github.com/tenntrend/engine/pkg/streaming"
)

// Picks older than this are flagged stale in API responses.
const defaultStaleAfter = 26 * time.Hour

// Config configures the dashboard server.
type Config struct {
	Addr        string
	CORSOrigins []string
	StaleAfter  time.Duration
}

// Server serves the dashboard API.
type Server struct {
	config  Config
	store   *history.Store
	hub     *streaming.Hub
	metrics *metrics.EngineMetrics
	started time.Time
}

// New creates a dashboard server. hub and em may be nil.
func New(config Config, store *history.Store, hub *streaming.Hub, em *metrics.EngineMetrics) *Server {
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if len(config.CORSOrigins) == 0 {
		config.CORSOrigins = []string{"*"}
	}
	if config.StaleAfter == 0 {
		config.StaleAfter = defaultStaleAfter
	}
	return &Server{
		config:  config,
		store:   store,
		hub:     hub,
		metrics: em,
		started: time.Now(),
	}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/picks", s.handlePicks)
		r.Get("/history", s.handleHistory)
		r.Get("/stats", s.handleStats)
	})

	if s.hub != nil {
		r.Get("/ws", s.hub.ServeWS)
	}
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	}

	return r
}

// ListenAndServe runs the server until the listener fails.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	log.Printf("[Server] Listening on %s", s.config.Addr)
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	clients := 0
	if s.hub != nil {
		clients = s.hub.ClientCount()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"clients": clients,
	})
}

// handlePicks returns the latest saved picks. The stale flag tells the
// dashboard to render the selection as outdated rather than hide it.
func (s *Server) handlePicks(w http.ResponseWriter, r *http.Request) {
	picks, err := s.store.LoadPicks()
	if errors.Is(err, fs.ErrNotExist) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"picks": nil,
			"stale": true,
		})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"picks": picks,
		"stale": time.Since(picks.Timestamp) > s.config.StaleAfter,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.LoadHistory()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.LoadHistory()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bets":     doc.Stats,
		"safeBets": doc.SafeBetStats,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Server] Encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
