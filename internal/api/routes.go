package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lawnchairsociety/DevSmtp/internal/health"
	"github.com/lawnchairsociety/DevSmtp/internal/metrics"
)

// NewRouter assembles the HTTP surface: message queries under /api/v1,
// health probes, and the Prometheus endpoint at /metrics.
func NewRouter(h *Handler, hc *health.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/messages", h.List)
		r.Get("/messages/search", h.Search)
		r.Get("/messages/{id}", h.GetByID)
	})

	r.Get("/healthz", hc.Health)
	r.Get("/livez", hc.Liveness)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}
