// Package viewer serves the pair browser over HTTP.
//
// The server owns one store.Cursor. Navigation endpoints move it and every
// view endpoint defaults to the pair under it, so several browser tabs see
// the same position.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/banshee-data/jawviewer/internal/catalog"
	"github.com/banshee-data/jawviewer/internal/mesh"
	"github.com/banshee-data/jawviewer/internal/monitoring"
	"github.com/banshee-data/jawviewer/internal/render"
	"github.com/banshee-data/jawviewer/internal/store"
)

// Config contains configuration options for the server.
type Config struct {
	Address string
	Store   *store.Store
	// Catalog is optional. When set, /api/runs and /debug/tailsql/ are
	// served from it.
	Catalog *catalog.Catalog
	Render  render.Options
	// ToothRGB identifies tooth points in charts.
	ToothRGB mesh.RGB
}

// Server is the HTTP front end of the viewer.
type Server struct {
	address   string
	cursor    *store.Cursor
	catalog   *catalog.Catalog
	render    render.Options
	tooth     mesh.RGB
	templates *TemplateSet
	server    *http.Server
	handler   http.Handler
}

// NewServer creates a server with the provided configuration.
func NewServer(cfg Config) (*Server, error) {
	st := cfg.Store
	if st == nil {
		st = store.New(nil)
	}
	tmpl, err := NewTemplateSet()
	if err != nil {
		return nil, err
	}
	s := &Server{
		address:   cfg.Address,
		cursor:    store.NewCursor(st),
		catalog:   cfg.Catalog,
		render:    cfg.Render,
		tooth:     cfg.ToothRGB,
		templates: tmpl,
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)
	if err := s.attachDebugRoutes(mux); err != nil {
		return nil, err
	}
	s.handler = mux
	s.server = &http.Server{
		Addr:              s.address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.handler }

// Cursor returns the navigation cursor.
func (s *Server) Cursor() *store.Cursor { return s.cursor }

// Start serves until ctx is cancelled, then shuts down gracefully.
// It returns an error only if the listener fails.
func (s *Server) Start(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		monitoring.Opsf("viewer listening on %s (%d pairs)", s.address, s.cursor.Store().Len())
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err, ok := <-errc:
		if ok {
			return fmt.Errorf("viewer server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	monitoring.Opsf("shutting down viewer server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Opsf("viewer shutdown error: %v", err)
		if err := s.server.Close(); err != nil {
			monitoring.Opsf("viewer force close error: %v", err)
		}
	}
	monitoring.Opsf("viewer server stopped")
	return nil
}

// Close stops the server immediately.
func (s *Server) Close() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

func (s *Server) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/pairs", s.handlePairs)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/nav/jump", s.handleJump)
	mux.HandleFunc("POST /api/nav/{direction}", s.handleStep)
	mux.HandleFunc("GET /api/runs", s.handleRuns)
	mux.HandleFunc("GET /view.png", s.handleSnapshot)
	mux.HandleFunc("GET /chart", s.handlePairChart)
	mux.HandleFunc("GET /chart/tiers", s.handleTierChart)
}

// attachDebugRoutes mounts the tsweb debug index and, when a catalogue is
// configured, a tailsql console over it.
func (s *Server) attachDebugRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)
	debug.KV("Pairs", s.cursor.Store().Len())
	if s.catalog == nil {
		return nil
	}

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+s.catalog.Path(), s.catalog.DB(), &tailsql.DBOptions{
		Label: "Collection catalogue",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
	return nil
}
