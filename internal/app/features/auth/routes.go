// internal/app/features/auth/routes.go
package auth

import (
	"time"

	"github.com/gatherhq/gatherhub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /auth. Credential
// endpoints are rate limited per client IP; token-bearing endpoints
// are not.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	credLimiter := ratelimit.New(10, time.Minute)

	r.Group(func(cr chi.Router) {
		cr.Use(credLimiter.Middleware)
		cr.Post("/register", h.HandleRegister)
		cr.Post("/login", h.HandleLogin)
		cr.Post("/forgot-password", h.HandleForgotPassword)
		cr.Post("/reset-password", h.HandleResetPassword)
	})

	r.Post("/refresh", h.HandleRefresh)

	r.Group(func(pr chi.Router) {
		pr.Use(h.Tokens.RequireAuth)
		pr.Get("/me", h.ServeMe)
		pr.Post("/change-password", h.HandleChangePassword)
	})

	return r
}
