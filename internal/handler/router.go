package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the HTTP API around h.
func NewRouter(h *EventHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(logger))          // structured access log
	r.Use(CORS)                    // permissive CORS for demo

	// Health
	r.Get("/health", HealthCheck)

	// API routes
	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Get("/", h.ListEvents)
		r.Get("/stats", h.Stats)
		r.Get("/{id}", h.GetEvent)
		r.Patch("/{id}", h.UpdateEvent)
		r.Post("/{id}/cancel", h.CancelEvent)
		r.Post("/{id}/register", h.Register)
		r.Post("/{id}/withdraw", h.Withdraw)
		r.Get("/{id}/registrations", h.ListRegistrations)
	})
	r.Get("/participants/{participant}/events", h.ParticipantEvents)

	return r
}
