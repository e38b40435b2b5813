// Package server exposes workspaces over a JSON REST API.
//
// Every mutating route serializes through the owning workspace's lock,
// so concurrent requests against one workspace apply in a total order
// while different workspaces proceed in parallel. Event envelopes are
// appended to the configured store as mutations fire, which makes the
// log replayable by the CLI and other instances.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/blockforge/pkg/block"
	"github.com/matzehuels/blockforge/pkg/cache"
	"github.com/matzehuels/blockforge/pkg/eventstore"
)

// Options configures a server.
type Options struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// Registry holds the block definitions workspaces are built from.
	Registry *block.Registry

	// Store receives every fired event envelope. Defaults to an
	// in-memory store.
	Store eventstore.Store

	// Logger defaults to log.Default().
	Logger *log.Logger
}

// renderCacheTTL bounds how long rendered SVGs stay cached. Entries key
// on the DOT hash, so a stale entry can only ever be an identical graph.
const renderCacheTTL = time.Hour

// Server is the HTTP API server.
type Server struct {
	addr      string
	logger    *log.Logger
	hub       *hub
	artifacts cache.Cache
}

// New creates a server; it does not start listening.
func New(opts Options) (*Server, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if opts.Store == nil {
		opts.Store = eventstore.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	return &Server{
		addr:      opts.Addr,
		logger:    opts.Logger,
		hub:       newHub(opts.Registry, opts.Store),
		artifacts: cache.NewMemoryCache(),
	}, nil
}

// Run starts the server and blocks until ctx is cancelled or the
// listener fails. Shutdown drains in-flight requests for up to 10s.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/workspaces", func(r chi.Router) {
		r.Get("/", s.handleListWorkspaces)
		r.Post("/", s.handleCreateWorkspace)

		r.Route("/{workspaceID}", func(r chi.Router) {
			r.Get("/", s.handleGetWorkspace)
			r.Delete("/", s.handleDeleteWorkspace)
			r.Post("/undo", s.handleUndo)
			r.Post("/redo", s.handleRedo)
			r.Post("/connect", s.handleConnect)
			r.Get("/events", s.handleEvents)
			r.Get("/render", s.handleRender)

			r.Route("/blocks", func(r chi.Router) {
				r.Post("/", s.handleCreateBlock)
				r.Route("/{blockID}", func(r chi.Router) {
					r.Get("/", s.handleGetBlock)
					r.Delete("/", s.handleDeleteBlock)
					r.Post("/move", s.handleMoveBlock)
					r.Post("/unplug", s.handleUnplugBlock)
					r.Put("/fields/{fieldName}", s.handleSetField)
				})
			})
		})
	})

	return r
}

// logRequests logs each request with method, path, status and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Microsecond),
		)
	})
}
