// Package core is the HTTP chassis of the carecal API: the chi router, the
// middleware every request passes through, and the JSON error envelope the
// handlers render with.
package core

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"carecal/internal/config"
)

// requestTimeout bounds every request context. A replace over the maximum
// horizon is the slowest request the API serves.
const requestTimeout = 30 * time.Second

// redactedHeaders are masked in the access log.
var redactedHeaders = []string{"Authorization", "Cookie"}

// Server owns the router and what handlers share.
type Server struct {
	Config       *config.Config
	Logger       *slog.Logger
	Validator    *Validator
	HealthProbes []HealthProbe

	// V1RouteRegistrars are mounted under /v1 by MountRoutes. The entry point
	// appends them so core never imports the handler packages.
	V1RouteRegistrars []func(chi.Router)

	router *chi.Mux
}

// NewServer creates a Server with an empty router.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("core: config must not be nil")
	case logger == nil:
		return nil, errors.New("core: logger must not be nil")
	}
	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}, nil
}

// MountRoutes installs the middleware chain, the /v1 registrars and GET
// /health. Call it once, after every registrar has been appended.
//
// Order matters: the request ID is set first so recovered panics and every
// log line carry it, and the recoverer wraps everything after it.
func (s *Server) MountRoutes() {
	s.router.Use(
		RequestID,
		s.Recoverer,
		middleware.Timeout(requestTimeout),
		middleware.SetHeader("X-Content-Type-Options", "nosniff"),
		middleware.SetHeader("X-Frame-Options", "DENY"),
		RequestLogger(s.Logger, redactedHeaders),
	)

	s.router.Route("/v1", func(r chi.Router) {
		for _, register := range s.V1RouteRegistrars {
			register(r)
		}
	})
	s.router.Get("/health", s.HandleHealth)
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// Router exposes the chi.Mux for tests and ad-hoc registration.
func (s *Server) Router() *chi.Mux { return s.router }
