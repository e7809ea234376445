package campaigns_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gatherhq/gatherhub/internal/app/features/campaigns"
	"github.com/gatherhq/gatherhub/internal/domain/models"
	"github.com/gatherhq/gatherhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*campaigns.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return campaigns.NewHandler(db, zap.NewNop(), nil), db
}

func TestHandleCreate(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	organizer := fixtures.CreateUser(ctx, "Organizer", "organizer@example.com")

	req := testutil.WithUser(testutil.NewJSONRequest("POST", "/campaigns", map[string]any{
		"title":       "Fix the Playground",
		"description": "The neighborhood playground needs new equipment and repairs.",
		"category":    "community",
		"goal":        250000,
		"endDate":     time.Now().Add(30 * 24 * time.Hour).Format(time.RFC3339),
	}), organizer)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d (body %s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		Status   string `json:"status"`
		Raised   int64  `json:"raised"`
		IsActive bool   `json:"isActive"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.Status != models.CampaignActive {
		t.Errorf("status: got %q, want active", resp.Status)
	}
	if resp.Raised != 0 {
		t.Errorf("raised: got %d, want 0", resp.Raised)
	}
	if !resp.IsActive {
		t.Error("expected a fresh campaign to accept donations")
	}
}

func TestHandleCreate_RejectsLowGoalAndPastEnd(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	organizer := fixtures.CreateUser(ctx, "Organizer", "organizer@example.com")

	for name, body := range map[string]map[string]any{
		"goal below minimum": {
			"title":       "Tiny Goal",
			"description": "A campaign whose goal is below the allowed minimum.",
			"category":    "other",
			"goal":        50,
			"endDate":     time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		},
		"end date in the past": {
			"title":       "Too Late",
			"description": "A campaign that would already be over at creation.",
			"category":    "other",
			"goal":        10000,
			"endDate":     time.Now().Add(-24 * time.Hour).Format(time.RFC3339),
		},
	} {
		req := testutil.WithUser(testutil.NewJSONRequest("POST", "/campaigns", body), organizer)
		rec := httptest.NewRecorder()
		h.HandleCreate(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want %d", name, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestServeCampaign_DerivedFields(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	organizer := fixtures.CreateUser(ctx, "Organizer", "organizer@example.com")
	campaign := fixtures.CreateCampaign(ctx, organizer.ID, "Halfway There", 10000, 10*24*time.Hour)
	if _, _, err := h.Campaigns.RecordDonation(ctx, campaign.ID, models.Donation{
		DonorID:    organizer.ID,
		Amount:     5000,
		PaymentRef: "pi_half",
	}); err != nil {
		t.Fatalf("RecordDonation failed: %v", err)
	}

	req := testutil.WithChiURLParam(httptest.NewRequest("GET", "/campaigns/"+campaign.ID.Hex(), nil), "id", campaign.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeCampaign(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (body %s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		Raised          int64   `json:"raised"`
		PercentFunded   float64 `json:"percentFunded"`
		AmountRemaining int64   `json:"amountRemaining"`
		DaysLeft        int     `json:"daysLeft"`
		IsActive        bool    `json:"isActive"`
	}
	testutil.DecodeJSON(t, rec, &resp)

	if resp.Raised != 5000 || resp.PercentFunded != 50 || resp.AmountRemaining != 5000 {
		t.Errorf("funding fields: got raised=%d percent=%v remaining=%d",
			resp.Raised, resp.PercentFunded, resp.AmountRemaining)
	}
	if resp.DaysLeft != 10 {
		t.Errorf("daysLeft: got %d, want 10", resp.DaysLeft)
	}
	if !resp.IsActive {
		t.Error("expected campaign to be active")
	}
}

func TestServeCampaign_EndedCampaign(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	organizer := fixtures.CreateUser(ctx, "Organizer", "organizer@example.com")
	// Negative runtime puts the end date in the past.
	campaign := fixtures.CreateCampaign(ctx, organizer.ID, "Over Now", 10000, -24*time.Hour)

	req := testutil.WithChiURLParam(httptest.NewRequest("GET", "/campaigns/"+campaign.ID.Hex(), nil), "id", campaign.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeCampaign(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (body %s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		DaysLeft int  `json:"daysLeft"`
		IsActive bool `json:"isActive"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.DaysLeft != 0 {
		t.Errorf("daysLeft: got %d, want 0 after the end date", resp.DaysLeft)
	}
	if resp.IsActive {
		t.Error("ended campaign must not report as active")
	}
}

func TestServeCampaign_DraftHiddenFromOthers(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	organizer := fixtures.CreateUser(ctx, "Organizer", "organizer@example.com")
	stranger := fixtures.CreateUser(ctx, "Stranger", "stranger@example.com")
	campaign := fixtures.CreateCampaign(ctx, organizer.ID, "Not Ready", 10000, 30*24*time.Hour)
	if err := h.Campaigns.SetStatus(ctx, campaign.ID, models.CampaignDraft); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	req := testutil.WithUser(httptest.NewRequest("GET", "/campaigns/"+campaign.ID.Hex(), nil), stranger)
	req = testutil.WithChiURLParam(req, "id", campaign.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeCampaign(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("stranger: got %d, want %d", rec.Code, http.StatusNotFound)
	}

	req = testutil.WithUser(httptest.NewRequest("GET", "/campaigns/"+campaign.ID.Hex(), nil), organizer)
	req = testutil.WithChiURLParam(req, "id", campaign.ID.Hex())
	rec = httptest.NewRecorder()
	h.ServeCampaign(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("organizer: got %d (body %s)", rec.Code, rec.Body.String())
	}
}

func TestServeDonations_AnonymousHidden(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	organizer := fixtures.CreateUser(ctx, "Organizer", "organizer@example.com")
	donor := fixtures.CreateUser(ctx, "Donor Name", "donor@example.com")
	campaign := fixtures.CreateCampaign(ctx, organizer.ID, "Open Ledger", 100000, 30*24*time.Hour)

	if _, _, err := h.Campaigns.RecordDonation(ctx, campaign.ID, models.Donation{
		DonorID: donor.ID, Amount: 1000, PaymentRef: "pi_named",
	}); err != nil {
		t.Fatalf("RecordDonation failed: %v", err)
	}
	if _, _, err := h.Campaigns.RecordDonation(ctx, campaign.ID, models.Donation{
		DonorID: donor.ID, Amount: 2000, PaymentRef: "pi_anon", Anonymous: true,
	}); err != nil {
		t.Fatalf("RecordDonation failed: %v", err)
	}

	req := testutil.WithChiURLParam(httptest.NewRequest("GET", "/campaigns/"+campaign.ID.Hex()+"/donations", nil), "id", campaign.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeDonations(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (body %s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		Donations []struct {
			DonorID   *string `json:"donorId"`
			DonorName string  `json:"donorName"`
			Anonymous bool    `json:"anonymous"`
			Amount    int64   `json:"amount"`
		} `json:"donations"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if len(resp.Donations) != 2 {
		t.Fatalf("expected 2 donations, got %d", len(resp.Donations))
	}
	for _, d := range resp.Donations {
		if d.Anonymous {
			if d.DonorID != nil || d.DonorName != "" && d.DonorName != "Anonymous" {
				t.Errorf("anonymous donation leaked donor identity: %+v", d)
			}
		} else {
			if d.DonorName != "Donor Name" {
				t.Errorf("named donation: got donor name %q", d.DonorName)
			}
		}
	}
}
