// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscription tiers.
const (
	TierFree    = "free"
	TierPremium = "premium"
)

// Account statuses. Accounts are never hard-deleted; deactivation
// flips Status to StatusDeactivated and the record stays in place.
const (
	StatusActive      = "active"
	StatusDeactivated = "deactivated"
)

// User represents an account plus its public profile.
//
// Follower/following lists are embedded ID sets; the storage layer keeps
// them duplicate-free with $addToSet/$pull.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`

	Bio       string `bson:"bio,omitempty" json:"bio,omitempty"`
	AvatarURL string `bson:"avatar_url,omitempty" json:"avatarUrl,omitempty"`
	Status    string `bson:"status" json:"-"`

	Tier               string     `bson:"tier" json:"tier"`
	SubscriptionStatus string     `bson:"subscription_status,omitempty" json:"subscriptionStatus,omitempty"`
	SubscriptionEnd    *time.Time `bson:"subscription_end,omitempty" json:"subscriptionEnd,omitempty"`

	StripeCustomerID     string `bson:"stripe_customer_id,omitempty" json:"-"`
	StripeSubscriptionID string `bson:"stripe_subscription_id,omitempty" json:"-"`

	Followers IDSet `bson:"followers,omitempty" json:"-"`
	Following IDSet `bson:"following,omitempty" json:"-"`
	Bookmarks IDSet `bson:"bookmarks,omitempty" json:"-"`
	Groups    IDSet `bson:"groups,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsActive reports whether the account may authenticate.
func (u *User) IsActive() bool {
	return u.Status != StatusDeactivated
}

// IsPremium reports whether the user currently has a premium tier.
func (u *User) IsPremium() bool {
	return u.Tier == TierPremium
}

// Profile is the public view of a user: no credentials, no billing
// linkage, and the email only when the viewer is the user themself.
type Profile struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email,omitempty"`
	Bio             string     `json:"bio,omitempty"`
	AvatarURL       string     `json:"avatarUrl,omitempty"`
	Tier            string     `json:"tier"`
	FollowerCount   int        `json:"followerCount"`
	FollowingCount  int        `json:"followingCount"`
	SubscriptionEnd *time.Time `json:"subscriptionEnd,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// PublicProfile builds the public view. Set self=true to include the email.
func (u *User) PublicProfile(self bool) Profile {
	p := Profile{
		ID:             u.ID.Hex(),
		Name:           u.Name,
		Bio:            u.Bio,
		AvatarURL:      u.AvatarURL,
		Tier:           u.Tier,
		FollowerCount:  len(u.Followers),
		FollowingCount: len(u.Following),
		CreatedAt:      u.CreatedAt,
	}
	if self {
		p.Email = u.Email
		p.SubscriptionEnd = u.SubscriptionEnd
	}
	return p
}
