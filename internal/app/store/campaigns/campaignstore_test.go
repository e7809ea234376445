package campaignstore_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	campaignstore "github.com/gatherhq/gatherhub/internal/app/store/campaigns"
	"github.com/gatherhq/gatherhub/internal/domain/models"
	"github.com/gatherhq/gatherhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create_Defaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := campaignstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Campaign{
		OrganizerID: primitive.NewObjectID(),
		Title:       "Community Garden",
		Description: "Raise funds for a neighborhood garden.",
		Category:    "community",
		Goal:        50000,
		Raised:      99999, // must be ignored
		EndDate:     time.Now().Add(30 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Status != models.CampaignActive {
		t.Errorf("expected active status by default, got %q", created.Status)
	}
	if created.Raised != 0 || created.DonorCount != 0 {
		t.Errorf("expected zeroed totals, got raised=%d donors=%d", created.Raised, created.DonorCount)
	}
}

func TestStore_Edit_OrganizerOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := campaignstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	organizer := fixtures.CreateUser(ctx, "Organizer", "organizer@example.com")
	campaign := fixtures.CreateCampaign(ctx, organizer.ID, "Fix the Roof", 100000, 30*24*time.Hour)

	err := store.Edit(ctx, campaign.ID, primitive.NewObjectID(), campaignstore.EditFields{
		Title:       "Hijacked",
		Description: campaign.Description,
		EndDate:     campaign.EndDate,
	})
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments for non-organizer edit, got %v", err)
	}

	if err := store.Edit(ctx, campaign.ID, organizer.ID, campaignstore.EditFields{
		Title:       "Fix the Whole Roof",
		Description: campaign.Description,
		EndDate:     campaign.EndDate,
	}); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}

	got, err := store.GetByID(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "Fix the Whole Roof" {
		t.Errorf("Title: got %q", got.Title)
	}
}

func TestStore_RecordDonation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := campaignstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	organizer := fixtures.CreateUser(ctx, "Organizer", "organizer@example.com")
	campaign := fixtures.CreateCampaign(ctx, organizer.ID, "School Supplies", 100000, 30*24*time.Hour)
	donor := primitive.NewObjectID()

	recorded, already, err := store.RecordDonation(ctx, campaign.ID, models.Donation{
		DonorID:    donor,
		Amount:     2500,
		PaymentRef: "pi_test_1",
	})
	if err != nil {
		t.Fatalf("RecordDonation failed: %v", err)
	}
	if already {
		t.Fatal("first recording reported as already recorded")
	}
	if recorded.Status != models.DonationCompleted {
		t.Errorf("expected completed status, got %q", recorded.Status)
	}

	got, err := store.GetByID(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Raised != 2500 || got.DonorCount != 1 {
		t.Errorf("totals: got raised=%d donors=%d, want 2500 and 1", got.Raised, got.DonorCount)
	}
}

func TestStore_RecordDonation_DuplicateRef(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := campaignstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	organizer := fixtures.CreateUser(ctx, "Organizer", "organizer@example.com")
	campaign := fixtures.CreateCampaign(ctx, organizer.ID, "Animal Shelter", 100000, 30*24*time.Hour)

	d := models.Donation{
		DonorID:    primitive.NewObjectID(),
		Amount:     5000,
		PaymentRef: "pi_dup",
	}

	if _, _, err := store.RecordDonation(ctx, campaign.ID, d); err != nil {
		t.Fatalf("first RecordDonation failed: %v", err)
	}

	// A webhook retry delivers the same payment reference again.
	_, already, err := store.RecordDonation(ctx, campaign.ID, d)
	if err != nil {
		t.Fatalf("duplicate RecordDonation failed: %v", err)
	}
	if !already {
		t.Error("expected duplicate ref to report alreadyRecorded")
	}

	got, err := store.GetByID(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Raised != 5000 {
		t.Errorf("expected raised to stay 5000 after duplicate, got %d", got.Raised)
	}
	if len(got.Donations) != 1 {
		t.Errorf("expected 1 donation, got %d", len(got.Donations))
	}
}

func TestStore_RecordDonation_CompletesAtGoal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := campaignstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	organizer := fixtures.CreateUser(ctx, "Organizer", "organizer@example.com")
	campaign := fixtures.CreateCampaign(ctx, organizer.ID, "Small Goal", 10000, 30*24*time.Hour)

	// Same donor twice plus a second donor; donor count is distinct donors.
	repeatDonor := primitive.NewObjectID()
	for i, d := range []models.Donation{
		{DonorID: repeatDonor, Amount: 4000},
		{DonorID: repeatDonor, Amount: 4000},
		{DonorID: primitive.NewObjectID(), Amount: 2000},
	} {
		d.PaymentRef = fmt.Sprintf("pi_goal_%d", i)
		if _, _, err := store.RecordDonation(ctx, campaign.ID, d); err != nil {
			t.Fatalf("RecordDonation %d failed: %v", i, err)
		}
	}

	got, err := store.GetByID(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Raised != 10000 {
		t.Errorf("raised: got %d, want 10000", got.Raised)
	}
	if got.DonorCount != 2 {
		t.Errorf("donor count: got %d, want 2 distinct donors", got.DonorCount)
	}
	if got.Status != models.CampaignCompleted {
		t.Errorf("expected campaign completed at goal, got %q", got.Status)
	}
}

func TestStore_RecordDonation_MissingCampaign(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := campaignstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, _, err := store.RecordDonation(ctx, primitive.NewObjectID(), models.Donation{
		DonorID:    primitive.NewObjectID(),
		Amount:     1000,
		PaymentRef: "pi_nowhere",
	})
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_List_ExcludesDraftsByDefault(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := campaignstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	organizer := fixtures.CreateUser(ctx, "Organizer", "organizer@example.com")
	active := fixtures.CreateCampaign(ctx, organizer.ID, "Visible", 50000, 30*24*time.Hour)

	draft := fixtures.CreateCampaign(ctx, organizer.ID, "Hidden Draft", 50000, 30*24*time.Hour)
	if err := store.SetStatus(ctx, draft.ID, models.CampaignDraft); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	campaigns, total, err := store.List(ctx, campaignstore.ListFilter{}, 0, 20)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(campaigns) != 1 {
		t.Fatalf("expected only the active campaign, got %d (total %d)", len(campaigns), total)
	}
	if campaigns[0].ID != active.ID {
		t.Errorf("List: got %v, want %v", campaigns[0].ID, active.ID)
	}
	// The donation list is projected out of listings.
	if campaigns[0].Donations != nil {
		t.Error("expected donations to be omitted from listings")
	}
}
