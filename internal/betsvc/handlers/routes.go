package handlers

import (
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
)

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Route("/v1", func(r chi.Router) {

		// public routes
		r.Get("/health", h.HealthHandler)
		r.Get("/houses", h.ListHouses)
		r.Get("/houses/{houseID}/round", h.ActiveRound)

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Post("/bets", h.PlaceBet)
			r.Get("/bets", h.MyBets)
			r.Get("/balance", h.Balance)
			r.Get("/transactions", h.MyTransactions)

			// admin routes
			r.Group(func(r chi.Router) {
				r.Use(h.AdminOnly)

				r.Post("/admin/rounds/{roundID}/result", h.RecordResult)
				r.Post("/admin/rounds/auto-create", h.TriggerAutoCreate)
			})
		})
	})
}
