// internal/app/store/campaigns/campaignstore.go
package campaignstore

import (
	"context"
	"errors"
	"time"

	"github.com/gatherhq/gatherhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotOrganizer is returned when a mutation requires the organizer.
var ErrNotOrganizer = errors.New("only the organizer may modify this campaign")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("campaigns")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Campaign, error) {
	var c models.Campaign
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.Campaign{}, err
	}
	return c, nil
}

func (s *Store) Create(ctx context.Context, c models.Campaign) (models.Campaign, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	if c.Status == "" {
		c.Status = models.CampaignActive
	}
	c.Raised = 0
	c.DonorCount = 0
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Campaign{}, err
	}
	return c, nil
}

// EditFields is the organizer-editable subset. Goal and category are
// immutable once the campaign is live.
type EditFields struct {
	Title       string
	Description string
	CoverURL    string
	EndDate     time.Time
}

// Edit updates the restricted field set. The filter enforces
// organizer-only so a stale ownership check cannot race.
func (s *Store) Edit(ctx context.Context, id, organizerID primitive.ObjectID, f EditFields) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "organizer_id": organizerID},
		bson.M{"$set": bson.M{
			"title":       f.Title,
			"description": f.Description,
			"cover_url":   f.CoverURL,
			"end_date":    f.EndDate,
			"updated_at":  time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetStatus transitions the campaign's lifecycle status.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// AppendUpdate adds an entry to the organizer's append-only update log.
func (s *Store) AppendUpdate(ctx context.Context, id, organizerID primitive.ObjectID, u models.CampaignUpdate) (models.CampaignUpdate, error) {
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "organizer_id": organizerID},
		bson.M{"$push": bson.M{"updates": u}},
	)
	if err != nil {
		return models.CampaignUpdate{}, err
	}
	if res.MatchedCount == 0 {
		return models.CampaignUpdate{}, mongo.ErrNoDocuments
	}
	return u, nil
}

// ToggleFollow adds or removes the user from the campaign's follower
// set and reports whether they ended up following.
func (s *Store) ToggleFollow(ctx context.Context, id, userID primitive.ObjectID) (bool, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if c.Followers.Has(userID) {
		_, err = s.c.UpdateByID(ctx, id, bson.M{"$pull": bson.M{"followers": userID}})
		return false, err
	}
	_, err = s.c.UpdateByID(ctx, id, bson.M{"$addToSet": bson.M{"followers": userID}})
	return true, err
}

// RecordDonation appends a completed donation and rederives the running
// totals. It is idempotent on the external payment reference: the append
// filter requires the ref to be absent, so duplicate webhook delivery
// (or a concurrent confirm call) matches nothing and reports
// alreadyRecorded instead of double-counting.
func (s *Store) RecordDonation(ctx context.Context, campaignID primitive.ObjectID, d models.Donation) (recorded models.Donation, alreadyRecorded bool, err error) {
	d.ID = primitive.NewObjectID()
	d.Status = models.DonationCompleted
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":                   campaignID,
			"donations.payment_ref": bson.M{"$ne": d.PaymentRef},
		},
		bson.M{"$push": bson.M{"donations": d}},
	)
	if err != nil {
		return models.Donation{}, false, err
	}
	if res.MatchedCount == 0 {
		// Either the campaign is missing or the ref is already recorded.
		c, gerr := s.GetByID(ctx, campaignID)
		if gerr != nil {
			return models.Donation{}, false, gerr
		}
		if c.HasDonationRef(d.PaymentRef) {
			return models.Donation{}, true, nil
		}
		return models.Donation{}, false, mongo.ErrNoDocuments
	}

	if err := s.recompute(ctx, campaignID); err != nil {
		return models.Donation{}, false, err
	}
	return d, false, nil
}

// recompute rederives raised and donor count from the embedded donation
// list and flips the campaign to completed once the goal is reached.
func (s *Store) recompute(ctx context.Context, campaignID primitive.ObjectID) error {
	c, err := s.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	c.Recompute()

	set := bson.M{
		"raised":      c.Raised,
		"donor_count": c.DonorCount,
		"updated_at":  time.Now().UTC(),
	}
	if c.Raised >= c.Goal && c.Status == models.CampaignActive {
		set["status"] = models.CampaignCompleted
	}
	_, err = s.c.UpdateByID(ctx, campaignID, bson.M{"$set": set})
	return err
}

// ListFilter narrows the campaign listing.
type ListFilter struct {
	Category string
	Status   string
}

// List returns campaigns newest-first with a total for page math.
func (s *Store) List(ctx context.Context, f ListFilter, skip, limit int64) ([]models.Campaign, int64, error) {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Status != "" {
		filter["status"] = f.Status
	} else {
		// Drafts and canceled campaigns stay out of public listings.
		filter["status"] = bson.M{"$nin": []string{models.CampaignDraft, models.CampaignCanceled}}
	}
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit).
		SetProjection(bson.M{"donations": 0})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var campaigns []models.Campaign
	if err := cur.All(ctx, &campaigns); err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

// ListByOrganizer returns the organizer's campaigns, newest first.
func (s *Store) ListByOrganizer(ctx context.Context, organizerID primitive.ObjectID) ([]models.Campaign, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"donations": 0})
	cur, err := s.c.Find(ctx, bson.M{"organizer_id": organizerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var campaigns []models.Campaign
	if err := cur.All(ctx, &campaigns); err != nil {
		return nil, err
	}
	return campaigns, nil
}
