package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/outreach/internal/auth"
	"github.com/ignite/outreach/internal/tracking"
)

// SetupRoutes configures all routes. The tracking endpoints and the auth
// endpoints stay outside the session guard; everything else under /api
// requires a session when an auth manager is supplied.
func SetupRoutes(h *Handlers, authManager *auth.Manager, trk *tracking.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// CORS - allow credentials for the session cookie
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if authManager != nil {
		r.Use(authManager.RequireAuth)
	}

	r.Get("/health", h.HealthCheck)

	// Tracking endpoints hit by recipient mail clients; never authenticated
	r.Get("/track/open", trk.HandleOpen)
	r.Get("/track/click/{trackingID}", trk.HandleClick)

	r.Route("/api", func(r chi.Router) {
		if authManager != nil {
			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", authManager.HandleLogin)
				r.Post("/logout", authManager.HandleLogout)
				r.Get("/session", authManager.HandleSession)
			})
		}

		r.Route("/batch", func(r chi.Router) {
			r.Post("/process", h.ProcessBatch)
			r.Post("/generate", h.GenerateEmails)
			r.Post("/send", h.SendEmails)
			r.Get("/history", h.BatchHistory)
			r.Get("/{batchID}/details", h.BatchDetails)
			r.Delete("/{batchID}", h.DeleteBatch)
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/overview", h.StatsOverview)
			r.Get("/monthly", h.StatsMonthly)
		})

		r.Get("/events", h.RecentEvents)

		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.SaveSettings)
	})

	return r
}
