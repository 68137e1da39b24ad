package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/orgconf/internal/adapter/http/handler"
	"github.com/iho/orgconf/internal/adapter/http/middleware"
	"github.com/iho/orgconf/internal/infrastructure/metrics"
	"github.com/iho/orgconf/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	SessionHandler   *handler.SessionHandler
	ReferenceHandler *handler.ReferenceHandler
	EntityHandler    *handler.EntityHandler
	HealthHandler    *handler.HealthHandler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter

	Logger         zerolog.Logger
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler

	// RequireActor rejects mutating requests without an X-Actor header.
	RequireActor bool
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Metrics))
	r.Use(middleware.Metrics(cfg.Metrics))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(cfg.RequireActor))

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Entity-edit sessions
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", cfg.SessionHandler.Start)
			r.Get("/{id}", cfg.SessionHandler.Get)
			r.Delete("/{id}", cfg.SessionHandler.Close)
			r.Post("/{id}/fields", cfg.SessionHandler.Propose)
			r.Post("/{id}/anchors/confirm", cfg.SessionHandler.Confirm)
			r.Post("/{id}/anchors/cancel", cfg.SessionHandler.Cancel)
			r.Get("/{id}/name-check", cfg.SessionHandler.CheckName)
			r.Get("/{id}/candidates/{list}", cfg.SessionHandler.Candidates)
			r.Post("/{id}/submit", cfg.SessionHandler.Submit)
		})

		// Reference data
		r.Route("/reference", func(r chi.Router) {
			r.Get("/countries", cfg.ReferenceHandler.Countries)
			r.Get("/countries/{cc}/states", cfg.ReferenceHandler.States)
			r.Get("/countries/{cc}/states/{sc}/cities", cfg.ReferenceHandler.Cities)
			r.Get("/postal", cfg.ReferenceHandler.PostalByCity)
			r.Get("/postal/{code}", cfg.ReferenceHandler.Postal)
			r.Get("/currency/{cc}", cfg.ReferenceHandler.Currency)
		})

		// Companies and branches
		r.Route("/entities", func(r chi.Router) {
			r.Get("/", cfg.EntityHandler.List)
			r.Get("/{id}", cfg.EntityHandler.Get)
			r.Get("/{id}/history", cfg.EntityHandler.History)
		})
	})

	return r
}
