// internal/app/features/groups/routes.go
package groups

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /groups. Listings and
// group pages resolve with or without a token (secret groups vanish
// for anonymous viewers); membership actions require one.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(or chi.Router) {
		or.Use(h.Tokens.OptionalAuth)
		or.Get("/", h.ServeList)
		or.Get("/{id}", h.ServeGroup)
		or.Get("/{id}/members", h.ServeMembers)
		or.Get("/{id}/posts", h.ServeGroupFeed)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.Tokens.RequireAuth)
		pr.Post("/", h.HandleCreate)
		pr.Put("/{id}/settings", h.HandleUpdateSettings)
		pr.Post("/{id}/join", h.HandleJoin)
		pr.Post("/{id}/leave", h.HandleLeave)
		pr.Post("/{id}/transfer", h.HandleTransferOwnership)
		pr.Get("/{id}/requests", h.ServePendingRequests)
		pr.Post("/{id}/requests/{userID}/approve", h.HandleApproveRequest)
		pr.Post("/{id}/requests/{userID}/reject", h.HandleRejectRequest)
		pr.Post("/{id}/members", h.HandleInvite)
		pr.Delete("/{id}/members/{userID}", h.HandleRemoveMember)
		pr.Put("/{id}/members/{userID}/role", h.HandleSetRole)
	})

	return r
}
