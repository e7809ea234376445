package payments_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gatherhq/gatherhub/internal/app/features/payments"
	userstore "github.com/gatherhq/gatherhub/internal/app/store/users"
	"github.com/gatherhq/gatherhub/internal/app/system/billing"
	"github.com/gatherhq/gatherhub/internal/testutil"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*payments.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	bc := billing.New(billing.Config{
		SecretKey:     "sk_test_unused",
		WebhookSecret: "whsec_test_secret",
	})
	return payments.NewHandler(db, zap.NewNop(), nil, bc), db
}

func TestHandleWebhook_RejectsBadSignature(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest("POST", "/payments/webhook", strings.NewReader(`{"type":"payment_intent.succeeded"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleWebhook_MissingSignature(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest("POST", "/payments/webhook", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleWebhook_TrialingSubscriptionGrantsPremium(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	users := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateUser(ctx, "Trial User", "trial@example.com")
	if err := users.SetStripeCustomer(ctx, user.ID, "cus_trial"); err != nil {
		t.Fatalf("SetStripeCustomer failed: %v", err)
	}

	periodEnd := time.Now().Add(14 * 24 * time.Hour).Unix()
	payload := fmt.Sprintf(`{"id":"evt_trial","api_version":%q,"type":"customer.subscription.updated","data":{"object":{"id":"sub_trial","status":"trialing","customer":{"id":"cus_trial"},"current_period_end":%d}}}`,
		stripe.APIVersion, periodEnd)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    "whsec_test_secret",
		Timestamp: time.Now(),
	})

	req := httptest.NewRequest("POST", "/payments/webhook", strings.NewReader(string(signed.Payload)))
	req.Header.Set("Stripe-Signature", signed.Header)
	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (body %s)", rec.Code, rec.Body.String())
	}

	got, err := users.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.IsPremium() {
		t.Errorf("tier = %q, want premium while trialing", got.Tier)
	}
	if got.SubscriptionStatus != "trialing" {
		t.Errorf("subscription status = %q, want trialing", got.SubscriptionStatus)
	}
	if got.StripeSubscriptionID != "sub_trial" {
		t.Errorf("subscription id = %q, want sub_trial", got.StripeSubscriptionID)
	}
}

func TestHandleDonate_RequiresActiveCampaign(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	organizer := fixtures.CreateUser(ctx, "Organizer", "organizer@example.com")
	donor := fixtures.CreateUser(ctx, "Donor", "donor@example.com")
	// Campaign already past its end date.
	ended := fixtures.CreateCampaign(ctx, organizer.ID, "Closed Drive", 10000, -24*time.Hour)

	req := testutil.WithUser(testutil.NewJSONRequest("POST", "/payments/donate", map[string]any{
		"campaignId": ended.ID.Hex(),
		"amount":     1000,
	}), donor)
	rec := httptest.NewRecorder()
	h.HandleDonate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d (body %s)", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
}
