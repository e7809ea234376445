// internal/app/features/payments/subscribe.go
package payments

import (
	"context"
	"net/http"

	sysauth "github.com/gatherhq/gatherhub/internal/app/system/auth"
	"github.com/gatherhq/gatherhub/internal/app/system/respond"
	"github.com/gatherhq/gatherhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleCheckout handles POST /payments/checkout: starts a hosted
// checkout for the premium subscription and returns its URL. The
// Stripe customer is created lazily on first use and remembered on
// the user record.
func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		h.Log.Error("checkout: load user", zap.Error(err), zap.String("user_id", userID.Hex()))
		respond.ServerError(w)
		return
	}
	if user.IsPremium() {
		respond.BadRequest(w, "already subscribed to premium")
		return
	}

	customerID, err := h.Billing.EnsureCustomer(user.StripeCustomerID, user.Email, user.Name, user.ID.Hex())
	if err != nil {
		h.Log.Error("checkout: ensure customer", zap.Error(err), zap.String("user_id", userID.Hex()))
		respond.ServerError(w)
		return
	}
	if customerID != user.StripeCustomerID {
		if err := h.Users.SetStripeCustomer(ctx, userID, customerID); err != nil {
			h.Log.Error("checkout: save customer id", zap.Error(err), zap.String("user_id", userID.Hex()))
			respond.ServerError(w)
			return
		}
	}

	url, err := h.Billing.CreateCheckoutSession(customerID, user.ID.Hex())
	if err != nil {
		h.Log.Error("checkout: create session", zap.Error(err), zap.String("user_id", userID.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"url": url})
}

// HandlePortal handles POST /payments/portal: opens the hosted billing
// portal so a subscriber can manage or cancel their plan.
func (h *Handler) HandlePortal(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		h.Log.Error("portal: load user", zap.Error(err), zap.String("user_id", userID.Hex()))
		respond.ServerError(w)
		return
	}
	if user.StripeCustomerID == "" {
		respond.BadRequest(w, "no billing account on file")
		return
	}

	url, err := h.Billing.CreatePortalSession(user.StripeCustomerID)
	if err != nil {
		h.Log.Error("portal: create session", zap.Error(err), zap.String("user_id", userID.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"url": url})
}
