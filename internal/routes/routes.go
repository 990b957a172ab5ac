package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/darahtanyoe/mitra-dashboard/internal/handlers"
	"github.com/darahtanyoe/mitra-dashboard/internal/middleware"
	"github.com/darahtanyoe/mitra-dashboard/internal/session"
)

func Setup(r *chi.Mux, h *handlers.Handler, store *session.Store) {
	r.Handle("/assets/*", h.Assets())

	// Login view: signed-in browsers bounce back to the dashboard.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RedirectAuthenticated(store))
		r.Use(middleware.LoginRateLimit)
		r.Get("/login", h.LoginPage)
		r.Post("/login", h.Login)
	})

	// Everything else requires a live session.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(store))

		r.Get("/", h.Home)
		r.Post("/logout", h.Logout)

		r.Get("/pendonoran", h.DonationsPage)
		r.Get("/pendonoran/export", h.ExportDonations)
		r.Get("/permintaan", h.RequestsPage)
		r.Get("/permintaan/export", h.ExportRequests)

		r.Post("/api/donations/{id}/complete", h.CompleteDonation)
		r.Post("/api/donations/{id}/cancel", h.CancelDonation)
		r.Post("/api/donations/{id}/verify", h.VerifyDonation)

		r.Post("/api/requests/{id}/accept", h.AcceptRequest)
		r.Post("/api/requests/{id}/reject", h.RejectRequest)
		r.Post("/api/requests/{id}/ready", h.ReadyRequest)
		r.Post("/api/requests/{id}/complete", h.CompleteRequest)
		r.Post("/api/requests/{id}/verify", h.VerifyRequest)
	})
}
