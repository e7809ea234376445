// internal/domain/models/campaign.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Campaign statuses.
const (
	CampaignDraft         = "draft"
	CampaignPendingReview = "pending_review"
	CampaignActive        = "active"
	CampaignPaused        = "paused"
	CampaignCompleted     = "completed"
	CampaignCanceled      = "canceled"
)

// Donation statuses. A completed donation is immutable.
const (
	DonationPending   = "pending"
	DonationCompleted = "completed"
	DonationFailed    = "failed"
	DonationRefunded  = "refunded"
)

// MinCampaignGoal is the smallest allowed funding goal.
const MinCampaignGoal = 100

// CampaignCategories is the allowed category enum.
var CampaignCategories = []string{
	"medical",
	"education",
	"community",
	"environment",
	"animals",
	"arts",
	"emergency",
	"other",
}

// IsValidCampaignCategory checks a category value from client input.
func IsValidCampaignCategory(c string) bool {
	for _, v := range CampaignCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Donation is a single contribution embedded in its campaign.
// PaymentRef carries the external payment reference and is the
// idempotency key for recording: a ref is appended at most once.
type Donation struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	DonorID    primitive.ObjectID `bson:"donor_id" json:"donorId"`
	Amount     int64              `bson:"amount" json:"amount"`
	Message    string             `bson:"message,omitempty" json:"message,omitempty"`
	Anonymous  bool               `bson:"anonymous,omitempty" json:"anonymous,omitempty"`
	PaymentRef string             `bson:"payment_ref" json:"-"`
	Status     string             `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
}

// CampaignUpdate is an organizer-posted progress note, append-only.
type CampaignUpdate struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// Campaign is a crowdfunding project. Raised and DonorCount are derived
// from the embedded donation list and recomputed on every recording so
// they always equal the completed-donation sum and the distinct-donor
// cardinality.
type Campaign struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizerID primitive.ObjectID `bson:"organizer_id" json:"organizerId"`

	Title       string `bson:"title" json:"title"`
	Description string `bson:"description" json:"description"`
	Category    string `bson:"category" json:"category"`
	CoverURL    string `bson:"cover_url,omitempty" json:"coverUrl,omitempty"`

	Goal       int64      `bson:"goal" json:"goal"`
	Raised     int64      `bson:"raised" json:"raised"`
	DonorCount int        `bson:"donor_count" json:"donorCount"`
	Donations  []Donation `bson:"donations,omitempty" json:"-"`

	Updates   []CampaignUpdate `bson:"updates,omitempty" json:"updates,omitempty"`
	Followers IDSet            `bson:"followers,omitempty" json:"-"`

	Status  string    `bson:"status" json:"status"`
	EndDate time.Time `bson:"end_date" json:"endDate"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// PercentFunded returns raised/goal as a percentage clamped to 0-100.
func (c *Campaign) PercentFunded() float64 {
	if c.Goal <= 0 {
		return 0
	}
	pct := float64(c.Raised) / float64(c.Goal) * 100
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// DaysLeft returns the ceiling of the remaining time in days, floored at 0.
func (c *Campaign) DaysLeft(now time.Time) int {
	remaining := c.EndDate.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// IsActive reports whether the campaign is currently accepting donations:
// active status, time remaining, and goal not yet reached.
func (c *Campaign) IsActive(now time.Time) bool {
	return c.Status == CampaignActive && c.DaysLeft(now) > 0 && c.Raised < c.Goal
}

// AmountRemaining returns goal minus raised, floored at 0.
func (c *Campaign) AmountRemaining() int64 {
	if c.Raised >= c.Goal {
		return 0
	}
	return c.Goal - c.Raised
}

// HasDonationRef reports whether a donation with the given external
// payment reference has already been recorded.
func (c *Campaign) HasDonationRef(paymentRef string) bool {
	for _, d := range c.Donations {
		if d.PaymentRef == paymentRef {
			return true
		}
	}
	return false
}

// Recompute rederives Raised and DonorCount from the embedded donations.
// Only completed donations count toward either.
func (c *Campaign) Recompute() {
	var sum int64
	donors := make(map[primitive.ObjectID]struct{})
	for _, d := range c.Donations {
		if d.Status != DonationCompleted {
			continue
		}
		sum += d.Amount
		donors[d.DonorID] = struct{}{}
	}
	c.Raised = sum
	c.DonorCount = len(donors)
}
