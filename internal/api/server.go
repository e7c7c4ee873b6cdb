// Package api serves the import review workflow over HTTP for the review UI.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/crewledger/crewledger/internal/config"
	"github.com/crewledger/crewledger/internal/importer"
	"github.com/crewledger/crewledger/internal/logger"
	"github.com/crewledger/crewledger/internal/pipeline"
)

// Options tunes the server.
type Options struct {
	PreviewTTL     time.Duration
	RateLimit      float64 // requests per second; 0 disables limiting
	RateBurst      int
	MaxUploadBytes int64
}

// OptionsFrom maps the server config section.
func OptionsFrom(c config.ServerConfig) Options {
	return Options{
		PreviewTTL:     c.PreviewTTL,
		RateLimit:      c.RateLimit,
		RateBurst:      c.RateBurst,
		MaxUploadBytes: c.MaxUploadBytes,
	}
}

// Server holds previews between upload and commit. Previews live only in
// memory; an expired preview must be uploaded again.
type Server struct {
	engine   *pipeline.Engine
	registry *importer.Registry
	previews *cache.Cache
	limiter  *rate.Limiter
	opts     Options

	commitMu sync.Mutex
}

// NewServer creates a Server.
func NewServer(engine *pipeline.Engine, opts Options) *Server {
	if opts.PreviewTTL <= 0 {
		opts.PreviewTTL = 30 * time.Minute
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	s := &Server{
		engine:   engine,
		registry: importer.DefaultRegistry(),
		previews: cache.New(opts.PreviewTTL, 2*opts.PreviewTTL),
		opts:     opts,
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = int(opts.RateLimit) + 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	if s.limiter != nil {
		r.Use(rateLimit(s.limiter))
	}

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/imports", s.handleUpload)
		r.Route("/imports/{previewID}", func(r chi.Router) {
			r.Get("/", s.handleGetPreview)
			r.Post("/commit", s.handleCommit)
			r.Post("/mappings", s.handleResolveCategory)
		})
		r.Get("/batches", s.handleListBatches)
		r.Get("/batches/{batchID}", s.handleGetBatch)
		r.Post("/batches/{batchID}/rollback", s.handleRollback)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.L.Info("server starting", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.L.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
