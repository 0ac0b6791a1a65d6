package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		r.Get("/config", h.GetConfig)
		r.Get("/stats", h.GetStats)

		r.Post("/runs", h.SubmitRun)
		r.Get("/runs", h.ListRuns)
		r.Get("/runs/{id}", h.GetRun)
		r.Get("/runs/{id}/events", h.ListRunEvents)
		r.Get("/runs/{id}/stream", h.StreamRunEvents)
		r.Get("/runs/{id}/variants/{variantID}/explain", h.ExplainVariant)
	})
}
