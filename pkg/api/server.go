// Package api exposes the scraping service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ahodyhq/ahody/pkg/browser"
	"github.com/ahodyhq/ahody/pkg/llm"
	"github.com/ahodyhq/ahody/pkg/scraper"
)

// ArticleScraper is the scraping pipeline the API fronts.
type ArticleScraper interface {
	ScrapeArticle(ctx context.Context, url string) (*scraper.Article, error)
}

// SourcePlanner generates scraping schedules for new sources.
type SourcePlanner interface {
	PlanSource(ctx context.Context, userPrompt, url string) (llm.SourcePlan, error)
}

// Server holds the handlers and their collaborators.
type Server struct {
	scraper ArticleScraper
	store   *browser.StateStore
	planner SourcePlanner
	log     *log.Logger
	started time.Time
}

// NewServer wires the HTTP layer. planner may be nil; source planning then
// always answers with the deterministic fallback.
func NewServer(s ArticleScraper, store *browser.StateStore, planner SourcePlanner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		scraper: s,
		store:   store,
		planner: planner,
		log:     logger.With("component", "api"),
		started: time.Now(),
	}
}

// Router builds the route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/scrape-article", s.handleScrapeArticle)
		r.Post("/sources", s.handleAddSource)

		r.Route("/auth-states", func(r chi.Router) {
			r.Get("/", s.handleListStates)
			r.Delete("/{site}", s.handleDeleteState)
			r.Post("/{site}/backup", s.handleBackupState)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(s.started).Truncate(time.Millisecond).String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}
