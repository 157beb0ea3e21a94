package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a chi router with all API routes mounted under /api.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health check (unauthenticated).
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Accounts.
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)

		// Log entries.
		r.Get("/logs", h.ListLogs)
		r.Post("/logs", h.CreateLog)
		r.Delete("/logs/{id}", h.DeleteLog)

		// Aggregation (manual trigger).
		r.Post("/logs/aggregate", h.Aggregate)

		// Direct provider paths.
		r.Post("/generate-summary", h.GenerateSummary)
		r.Post("/check-connection", h.CheckConnection)

		// Per-user model configuration.
		r.Get("/config", h.GetModelConfig)
		r.Put("/config", h.PutModelConfig)
	})

	return r
}
