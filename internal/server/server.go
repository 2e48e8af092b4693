// Package server provides the HTTP API for the lexicon.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/lexicon/internal/autocomplete"
	"github.com/hyperjump/lexicon/internal/config"
	"github.com/hyperjump/lexicon/internal/ingest"
	"github.com/hyperjump/lexicon/internal/search"
	"github.com/hyperjump/lexicon/internal/storage"
)

// Rebuilder rebuilds the autocomplete index on demand.
type Rebuilder interface {
	Rebuild(ctx context.Context) (int, error)
}

// Server is the HTTP server for the lexicon API.
type Server struct {
	search      *search.Service
	pipeline    *ingest.Pipeline
	rebuilder   Rebuilder
	storage     storage.Storage
	completions autocomplete.Store
	config      *config.Config
	logger      *zap.Logger
	server      *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	svc *search.Service,
	pipeline *ingest.Pipeline,
	rebuilder Rebuilder,
	storage storage.Storage,
	completions autocomplete.Store,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		search:      svc,
		pipeline:    pipeline,
		rebuilder:   rebuilder,
		storage:     storage,
		completions: completions,
		config:      cfg,
		logger:      logger,
	}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(s.authorize)

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/search", s.handleSearch)
		r.Get("/lookup", s.handleLookup)
		r.Get("/publications", s.handleListPublications)
		r.Get("/publications/{publication}", s.handleListPublication)
		r.Get("/topics/{filename}", s.handleGetTopic)

		r.Group(func(r chi.Router) {
			r.Use(requireAuthorized)
			r.Put("/topics/{filename}", s.handlePutTopic)
			r.Delete("/topics/{filename}", s.handleDeleteTopic)
			r.Post("/sync", s.handleSync)
			r.Post("/autocomplete/rebuild", s.handleRebuild)
		})
	})
	return r
}

// Start starts the HTTP server and blocks until it stops. It returns
// http.ErrServerClosed after Stop.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
