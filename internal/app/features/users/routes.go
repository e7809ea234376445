// internal/app/features/users/routes.go
package users

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /users. Profile pages
// and follower listings are public; everything that mutates requires
// a signed-in user.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(or chi.Router) {
		or.Use(h.Tokens.OptionalAuth)
		or.Get("/{id}", h.ServeProfile)
		or.Get("/{id}/followers", h.ServeFollowers)
		or.Get("/{id}/following", h.ServeFollowing)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.Tokens.RequireAuth)
		pr.Put("/me", h.HandleUpdateProfile)
		pr.Post("/me/deactivate", h.HandleDeactivate)
		pr.Post("/{id}/follow", h.HandleFollow)
		pr.Delete("/{id}/follow", h.HandleUnfollow)
	})

	return r
}
