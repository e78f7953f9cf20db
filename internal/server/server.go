// Package server exposes the evocut toolkit over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"evocut/internal/config"
)

const shutdownTimeout = 10 * time.Second

// Options wires a Server.
type Options struct {
	Settings    *config.Settings
	Catalog     *config.CatalogRef
	CatalogPath string // watched when Settings.Watch is set
	Store       *config.Store
	Logger      *zap.Logger
}

// Server serves the HTTP API.
type Server struct {
	settings    *config.Settings
	catalog     *config.CatalogRef
	catalogPath string
	store       *config.Store
	logger      *zap.Logger
}

// New builds a server. Nil settings and logger fall back to defaults.
func New(opts Options) *Server {
	s := &Server{
		settings:    opts.Settings,
		catalog:     opts.Catalog,
		catalogPath: opts.CatalogPath,
		store:       opts.Store,
		logger:      opts.Logger,
	}
	if s.settings == nil {
		s.settings = config.DefaultSettings()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.catalog == nil {
		s.catalog = config.NewCatalogRef(&config.Catalog{})
	}
	return s
}

// Handler returns the router with all middleware and routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.settings.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/skeleton", s.deriveSkeleton)
		r.Post("/evolve", s.parseEvolve)
		r.Get("/options", s.options)

		r.Route("/problems", func(r chi.Router) {
			r.Get("/", s.listProblems)
			r.Get("/{id}/template", s.problemTemplate)
			r.Get("/{id}/replay", s.problemReplay)
			r.Get("/{id}/export", s.problemExport)
		})

		r.Route("/config", func(r chi.Router) {
			r.Get("/", s.getConfig)
			r.Put("/", s.putConfig)
			r.Patch("/", s.patchConfig)
			r.Delete("/", s.deleteConfig)
		})
	})

	return r
}

// Run serves on Settings.Addr until ctx is done, then shuts down
// gracefully. With Settings.Watch the catalog is reloaded on change.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.settings.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting server", zap.String("address", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if s.settings.Watch && s.catalogPath != "" {
		g.Go(func() error {
			return config.WatchCatalog(gctx, s.catalogPath, func(c *config.Catalog) {
				s.catalog.Store(c)
				s.logger.Info("Catalog reloaded", zap.String("path", s.catalogPath), zap.Int("problems", len(c.Problems)))
			}, func(err error) {
				s.logger.Warn("Catalog reload failed", zap.Error(err))
			})
		})
	}

	return g.Wait()
}
