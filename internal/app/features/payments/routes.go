// internal/app/features/payments/routes.go
package payments

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /payments. The webhook is
// unauthenticated; its signature check is the authentication.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/webhook", h.HandleWebhook)

	r.Group(func(pr chi.Router) {
		pr.Use(h.Tokens.RequireAuth)
		pr.Post("/checkout", h.HandleCheckout)
		pr.Post("/portal", h.HandlePortal)
		pr.Post("/donate", h.HandleDonate)
		pr.Post("/donations/confirm", h.HandleConfirmDonation)
	})

	return r
}
