// internal/app/features/payments/webhook.go
package payments

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gatherhq/gatherhub/internal/app/system/respond"
	"github.com/gatherhq/gatherhub/internal/app/system/timeouts"
	"github.com/gatherhq/gatherhub/internal/domain/models"
	"github.com/stripe/stripe-go/v76"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// webhookBodyLimit caps the raw payload read from the provider.
const webhookBodyLimit = 1 << 16

// HandleWebhook handles POST /payments/webhook. The signature is
// verified before anything in the payload is trusted. Handlers are
// idempotent, so provider retries and duplicate deliveries are safe.
// Unrecognized event types are acknowledged and dropped.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		respond.BadRequest(w, "unreadable payload")
		return
	}

	event, err := h.Billing.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.Log.Warn("webhook: signature verification failed", zap.Error(err))
		respond.BadRequest(w, "invalid signature")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	switch event.Type {
	case "payment_intent.succeeded":
		err = h.onPaymentSucceeded(ctx, event)
	case "checkout.session.completed":
		err = h.onCheckoutCompleted(ctx, event)
	case "customer.subscription.created", "customer.subscription.updated":
		err = h.onSubscriptionUpdated(ctx, event)
	case "customer.subscription.deleted":
		err = h.onSubscriptionDeleted(ctx, event)
	case "invoice.payment_failed":
		err = h.onInvoiceFailed(ctx, event)
	default:
		h.Log.Debug("webhook: ignoring event", zap.String("type", string(event.Type)))
	}
	if err != nil {
		// Non-2xx makes the provider retry later.
		h.Log.Error("webhook: handler failed", zap.Error(err), zap.String("type", string(event.Type)))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"received": "ok"})
}

func (h *Handler) onPaymentSucceeded(ctx context.Context, event stripe.Event) error {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return err
	}
	// Payments without campaign metadata (subscription invoices) are
	// not donations.
	if pi.Metadata["campaign_id"] == "" {
		return nil
	}
	already, err := h.recordDonationFromIntent(ctx, &pi)
	if err != nil {
		return err
	}
	if already {
		h.Log.Debug("webhook: donation already recorded", zap.String("payment_intent", pi.ID))
	}
	return nil
}

func (h *Handler) onCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return err
	}
	userID, err := primitive.ObjectIDFromHex(sess.ClientReferenceID)
	if err != nil {
		h.Log.Warn("webhook: checkout session without user reference", zap.String("session", sess.ID))
		return nil
	}

	if sess.Customer != nil {
		if err := h.Users.SetStripeCustomer(ctx, userID, sess.Customer.ID); err != nil {
			return err
		}
	}
	if sess.Subscription == nil {
		return nil
	}

	var end *time.Time
	if sess.Subscription.CurrentPeriodEnd > 0 {
		t := time.Unix(sess.Subscription.CurrentPeriodEnd, 0).UTC()
		end = &t
	}
	return h.Users.ActivateSubscription(ctx, userID, sess.Subscription.ID, string(sess.Subscription.Status), end)
}

func (h *Handler) onSubscriptionUpdated(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return err
	}
	user, err := h.userForSubscription(ctx, &sub)
	if err != nil || user == nil {
		return err
	}

	// Trialing subscriptions already grant premium.
	if sub.Status == stripe.SubscriptionStatusActive || sub.Status == stripe.SubscriptionStatusTrialing {
		var end *time.Time
		if sub.CurrentPeriodEnd > 0 {
			t := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
			end = &t
		}
		return h.Users.ActivateSubscription(ctx, user.ID, sub.ID, string(sub.Status), end)
	}
	if sub.Status == stripe.SubscriptionStatusCanceled {
		return h.Users.ClearSubscription(ctx, user.ID)
	}
	return h.Users.SetSubscriptionStatus(ctx, user.ID, string(sub.Status))
}

func (h *Handler) onSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return err
	}
	user, err := h.userForSubscription(ctx, &sub)
	if err != nil || user == nil {
		return err
	}
	return h.Users.ClearSubscription(ctx, user.ID)
}

func (h *Handler) onInvoiceFailed(ctx context.Context, event stripe.Event) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return err
	}
	if inv.Customer == nil {
		return nil
	}
	user, err := h.Users.GetByStripeCustomer(ctx, inv.Customer.ID)
	if err != nil {
		// A customer we never issued; nothing to update.
		h.Log.Warn("webhook: invoice for unknown customer", zap.String("customer", inv.Customer.ID))
		return nil
	}
	return h.Users.SetSubscriptionStatus(ctx, user.ID, "past_due")
}

func (h *Handler) userForSubscription(ctx context.Context, sub *stripe.Subscription) (*models.User, error) {
	if sub.Customer == nil {
		return nil, nil
	}
	user, err := h.Users.GetByStripeCustomer(ctx, sub.Customer.ID)
	if err != nil {
		h.Log.Warn("webhook: subscription for unknown customer", zap.String("customer", sub.Customer.ID))
		return nil, nil
	}
	return &user, nil
}
