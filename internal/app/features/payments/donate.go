// internal/app/features/payments/donate.go
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	sysauth "github.com/gatherhq/gatherhub/internal/app/system/auth"
	"github.com/gatherhq/gatherhub/internal/app/system/billing"
	"github.com/gatherhq/gatherhub/internal/app/system/inputval"
	"github.com/gatherhq/gatherhub/internal/app/system/normalize"
	"github.com/gatherhq/gatherhub/internal/app/system/respond"
	"github.com/gatherhq/gatherhub/internal/app/system/sanitize"
	"github.com/gatherhq/gatherhub/internal/app/system/timeouts"
	"github.com/gatherhq/gatherhub/internal/domain/models"
	"github.com/stripe/stripe-go/v76"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type donateInput struct {
	CampaignID string `json:"campaignId" validate:"required" label:"campaign"`
	Amount     int64  `json:"amount" validate:"gte=100" label:"amount"`
	Message    string `json:"message" validate:"max=500" label:"message"`
	Anonymous  bool   `json:"anonymous"`
}

// HandleDonate handles POST /payments/donate: creates a payment intent
// for a donation and returns its client secret for the frontend to
// complete. Amounts are in cents with a one-dollar floor.
func (h *Handler) HandleDonate(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}

	var in donateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	in.Message = sanitize.Text(normalize.Text(in.Message))
	if res := inputval.Validate(in); res.HasErrors() {
		respond.ValidationErrors(w, res.Errors)
		return
	}
	campaignID, err := primitive.ObjectIDFromHex(in.CampaignID)
	if err != nil {
		respond.BadRequest(w, "invalid campaign id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	c, err := h.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "campaign not found")
			return
		}
		h.Log.Error("donate: load campaign", zap.Error(err), zap.String("campaign_id", campaignID.Hex()))
		respond.ServerError(w)
		return
	}
	if !c.IsActive(time.Now()) {
		respond.BadRequest(w, "this campaign is not accepting donations")
		return
	}

	intentID, clientSecret, err := h.Billing.CreatePaymentIntent(billing.DonationIntent{
		Amount:     in.Amount,
		CampaignID: campaignID.Hex(),
		DonorID:    userID.Hex(),
		Anonymous:  in.Anonymous,
		Message:    in.Message,
	})
	if err != nil {
		h.Log.Error("donate: create payment intent", zap.Error(err),
			zap.String("campaign_id", campaignID.Hex()), zap.String("user_id", userID.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{
		"paymentIntentId": intentID,
		"clientSecret":    clientSecret,
	})
}

type confirmInput struct {
	PaymentIntentID string `json:"paymentIntentId" validate:"required" label:"payment intent"`
}

// HandleConfirmDonation handles POST /payments/donations/confirm. The
// frontend calls this after completing payment so the donation lands
// even if the webhook is delayed. The intent's status is verified
// against the provider, and recording is idempotent on the intent id,
// so the webhook arriving later cannot double-count.
func (h *Handler) HandleConfirmDonation(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}

	var in confirmInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		respond.ValidationErrors(w, res.Errors)
		return
	}

	pi, err := h.Billing.GetPaymentIntent(in.PaymentIntentID)
	if err != nil {
		respond.NotFound(w, "payment not found")
		return
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		respond.BadRequest(w, "payment has not succeeded")
		return
	}
	if pi.Metadata[billing.MetaDonorID] != userID.Hex() {
		respond.Forbidden(w, "this payment belongs to another account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	already, err := h.recordDonationFromIntent(ctx, pi)
	if err != nil {
		h.Log.Error("confirm-donation: record", zap.Error(err), zap.String("payment_intent", pi.ID))
		respond.ServerError(w)
		return
	}

	status := "recorded"
	if already {
		status = "already_recorded"
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": status})
}

// recordDonationFromIntent maps a succeeded payment intent onto a
// campaign donation. Shared by the confirm endpoint and the webhook.
func (h *Handler) recordDonationFromIntent(ctx context.Context, pi *stripe.PaymentIntent) (alreadyRecorded bool, err error) {
	campaignID, err := primitive.ObjectIDFromHex(pi.Metadata[billing.MetaCampaignID])
	if err != nil {
		return false, errors.New("payment intent carries no campaign reference")
	}
	donorID, err := primitive.ObjectIDFromHex(pi.Metadata[billing.MetaDonorID])
	if err != nil {
		return false, errors.New("payment intent carries no donor reference")
	}

	_, already, err := h.Campaigns.RecordDonation(ctx, campaignID, models.Donation{
		DonorID:    donorID,
		Amount:     pi.Amount,
		Message:    pi.Metadata[billing.MetaMessage],
		Anonymous:  pi.Metadata[billing.MetaAnonymous] == "true",
		PaymentRef: pi.ID,
	})
	return already, err
}
