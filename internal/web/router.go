package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"patient-dashboard/internal/config"
	"patient-dashboard/internal/dashboard"
)

// Server serves the dashboard page, its forms and the live /ws feed.
type Server struct {
	config   *config.Config
	router   chi.Router
	handlers *Handlers
	hub      *Hub
	store    *dashboard.Store
}

// NewServer wires the routes. journal may be nil when the fetch journal is
// disabled.
func NewServer(cfg *config.Config, store *dashboard.Store, journal Journal) *Server {
	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		handlers: NewHandlers(store, journal),
		hub:      NewHub(store.Snapshot),
		store:    store,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handlers.HealthCheck)

	s.router.Get("/", s.handlers.Dashboard)
	s.router.Post("/sort", s.handlers.ApplySort)
	s.router.Post("/search", s.handlers.Search)
	s.router.Post("/reset", s.handlers.Reset)
	s.router.Get("/ws", s.hub.ServeWS())

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handlers.GetState)
		r.Get("/journal", s.handlers.ListJournal)
	})
}

// Run pushes every Store change to connected viewers until ctx is done.
func (s *Server) Run(ctx context.Context) {
	unwatch := s.store.Watch(s.hub.BroadcastView)
	defer unwatch()
	s.hub.Run(ctx)
}

// Router returns the chi router
func (s *Server) Router() http.Handler {
	return s.router
}
