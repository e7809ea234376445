// internal/app/features/campaigns/routes.go
package campaigns

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /campaigns. Listings,
// detail pages, and donation rolls are public; everything that
// mutates requires a signed-in user.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(or chi.Router) {
		or.Use(h.Tokens.OptionalAuth)
		or.Get("/", h.ServeList)
		or.Get("/{id}", h.ServeCampaign)
		or.Get("/{id}/donations", h.ServeDonations)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.Tokens.RequireAuth)
		pr.Post("/", h.HandleCreate)
		pr.Put("/{id}", h.HandleEdit)
		pr.Put("/{id}/status", h.HandleSetStatus)
		pr.Post("/{id}/updates", h.HandleAddUpdate)
		pr.Post("/{id}/follow", h.HandleToggleFollow)
	})

	return r
}
