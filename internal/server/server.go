// Package server exposes the keeper over a small HTTP control API and a
// WebSocket event stream.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stigoleg/movemouse/internal/keepalive"
	"github.com/stigoleg/movemouse/internal/profile"
	"github.com/stigoleg/movemouse/internal/store"
)

// Keeper is the part of keepalive.Keeper the API drives.
type Keeper interface {
	Status() keepalive.Status
	Start()
	Stop(target keepalive.MouseState)
	Toggle() bool
}

// Profiles lists, edits and switches profiles. Refs are ids or names.
type Profiles interface {
	Profiles() []*profile.Profile
	Active() *profile.Profile
	Activate(ref string) (*profile.Profile, error)
	Create(name, from string) (*profile.Profile, error)
	Rename(ref, name string) (*profile.Profile, error)
	Remove(ref string) error
}

// History reads the activity journal.
type History interface {
	History(ctx context.Context, limit int) ([]store.Entry, error)
}

// Events is a source of keeper events, normally a keepalive.Broadcaster.
type Events interface {
	Subscribe() (<-chan keepalive.Event, func())
}

// Deps are the collaborators behind the routes. History and Events may be
// nil, disabling /v1/history and /v1/ws.
type Deps struct {
	Keeper   Keeper
	Profiles Profiles
	History  History
	Events   Events
}

// Server holds the HTTP server state.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	deps       Deps
	hub        *Hub
	logger     *slog.Logger
	authToken  string
}

// NewServer constructs the HTTP API server. An empty authToken leaves the
// API open.
func NewServer(addr, authToken string, deps Deps, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		deps:      deps,
		hub:       NewHub(logger, HubConfig{}),
		logger:    logger,
		authToken: authToken,
	}
	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Run drives the WebSocket hub and forwards keeper events to it until ctx
// is done.
func (s *Server) Run(ctx context.Context) {
	go s.hub.Run(ctx)
	if s.deps.Events == nil {
		<-ctx.Done()
		return
	}
	src, cancel := s.deps.Events.Subscribe()
	defer cancel()
	RunBroadcaster(ctx, s.hub, src, s.logger)
}

// Start begins serving HTTP requests. It returns nil after Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("http server listening", "addr", ln.Addr().String())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.router.Route("/v1", func(r chi.Router) {
		if s.authToken != "" {
			r.Use(AuthMiddleware(s.authToken))
		}

		r.Get("/state", s.handleState)
		r.Post("/toggle", s.handleToggle)
		r.Post("/start", s.handleStart)
		r.Post("/stop", s.handleStop)
		r.Get("/history", s.handleHistory)

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", s.handleListProfiles)
			r.Post("/", s.handleCreateProfile)
			r.Put("/active", s.handleSetActiveProfile)
			r.Patch("/{id}", s.handleRenameProfile)
			r.Delete("/{id}", s.handleRemoveProfile)
		})

		r.Get("/ws", s.handleWS)
	})
}
