// Package server exposes the scrape scheduler over HTTP: POST /scrape runs a
// search and returns the report, GET /health reports liveness.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/crokau/szcraper/config"
	"github.com/crokau/szcraper/models"
	"github.com/crokau/szcraper/scraper/marketplace"
	"github.com/crokau/szcraper/utils"
)

// Server wires the scrape scheduler to an HTTP surface.
type Server struct {
	cfg     *config.Config
	logger  *utils.Logger
	scraper *marketplace.Scraper
	started time.Time
}

// New builds a Server around an already-constructed scraper.
func New(cfg *config.Config, logger *utils.Logger, scraper *marketplace.Scraper) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger,
		scraper: scraper,
		started: time.Now(),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/scrape", s.handleScrape)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// ListenAndServe blocks serving the configured address.
func (s *Server) ListenAndServe() error {
	s.logger.Info("[server] listening on %s", s.cfg.ListenAddr)
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.MaxPages < 1 || req.MaxPages > s.cfg.MaxPages {
		req.MaxPages = s.cfg.MaxPages
	}

	s.logger.Info("[server] scrape request: %q (pages=%d details=%v)",
		req.Query, req.MaxPages, req.Details)

	report := s.scraper.Run(context.Background(), req)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "use GET")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
