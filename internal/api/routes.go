package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the router and all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/datasets", h.ListDatasets)
		r.Get("/datasets/{dataset}/latest", h.LatestOutcome)
		r.Get("/history", h.History)
		r.Get("/trends", h.Trends)
		r.Get("/alerts/audit", h.AlertAudit)

		r.Route("/pipeline", func(r chi.Router) {
			r.Get("/status", h.PipelineStatus)
			r.Post("/trigger", h.TriggerRun)
			r.Post("/cancel", h.CancelRun)
		})
	})

	return r
}
