// internal/app/features/posts/routes.go
package posts

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /posts. Reads work with
// or without a token (visibility narrows for anonymous viewers);
// writes require one.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(or chi.Router) {
		or.Use(h.Tokens.OptionalAuth)
		or.Get("/feed", h.ServeGlobalFeed)
		or.Get("/trending", h.ServeTrending)
		or.Get("/{id}", h.ServePost)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.Tokens.RequireAuth)
		pr.Get("/feed/me", h.ServePersonalFeed)
		pr.Get("/bookmarks", h.ServeBookmarks)
		pr.Post("/", h.HandleCreate)
		pr.Put("/{id}", h.HandleEdit)
		pr.Delete("/{id}", h.HandleDelete)
		pr.Post("/{id}/like", h.HandleToggleLike)
		pr.Post("/{id}/bookmark", h.HandleToggleBookmark)
		pr.Post("/{id}/share", h.HandleShare)
		pr.Post("/{id}/comments", h.HandleAddComment)
		pr.Delete("/{id}/comments/{commentID}", h.HandleRemoveComment)
	})

	return r
}
