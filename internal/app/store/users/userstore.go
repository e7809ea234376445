// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/gatherhq/gatherhub/internal/app/system/normalize"
	"github.com/gatherhq/gatherhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrDuplicateEmail is returned when an email address is already registered.
var ErrDuplicateEmail = errors.New("an account with this email already exists")

// ErrSelfFollow is returned when a user tries to follow themself.
var ErrSelfFollow = errors.New("cannot follow yourself")

// ErrAlreadyFollowing is returned when the follow relationship already exists.
var ErrAlreadyFollowing = errors.New("already following this user")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// Create inserts a new account with free tier and active status.
// The unique email index turns races into ErrDuplicateEmail.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.Email = normalize.Email(u.Email)
	u.Tier = models.TierFree
	u.Status = models.StatusActive
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// UpdateProfile sets the editable profile fields.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, name, bio, avatarURL string) error {
	set := bson.M{
		"bio":        bio,
		"avatar_url": avatarURL,
		"updated_at": time.Now().UTC(),
	}
	if name != "" {
		set["name"] = name
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// SetPassword replaces the password hash.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"password_hash": hash,
		"updated_at":    time.Now().UTC(),
	}})
	return err
}

// Deactivate flips the account's status flag. The record stays in place.
func (s *Store) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     models.StatusDeactivated,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// Follow adds target to follower's following set and vice versa.
// $addToSet keeps both sets duplicate-free; a repeated follow modifies
// nothing and surfaces as ErrAlreadyFollowing.
func (s *Store) Follow(ctx context.Context, followerID, targetID primitive.ObjectID) error {
	if followerID == targetID {
		return ErrSelfFollow
	}
	res, err := s.c.UpdateByID(ctx, followerID, bson.M{
		"$addToSet": bson.M{"following": targetID},
	})
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return ErrAlreadyFollowing
	}
	_, err = s.c.UpdateByID(ctx, targetID, bson.M{
		"$addToSet": bson.M{"followers": followerID},
	})
	return err
}

// Unfollow removes the pair of references written by Follow.
func (s *Store) Unfollow(ctx context.Context, followerID, targetID primitive.ObjectID) error {
	if _, err := s.c.UpdateByID(ctx, followerID, bson.M{
		"$pull": bson.M{"following": targetID},
	}); err != nil {
		return err
	}
	_, err := s.c.UpdateByID(ctx, targetID, bson.M{
		"$pull": bson.M{"followers": followerID},
	})
	return err
}

// ToggleBookmark mirrors a post bookmark on the user document and
// reports whether the post ended up bookmarked.
func (s *Store) ToggleBookmark(ctx context.Context, userID, postID primitive.ObjectID) (bool, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if u.Bookmarks.Has(postID) {
		_, err = s.c.UpdateByID(ctx, userID, bson.M{"$pull": bson.M{"bookmarks": postID}})
		return false, err
	}
	_, err = s.c.UpdateByID(ctx, userID, bson.M{"$addToSet": bson.M{"bookmarks": postID}})
	return true, err
}

// ListByIDs fetches users for the given IDs. Order is not preserved.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

/* Billing linkage, driven by the payments webhook. */

// GetByStripeCustomer finds the account linked to a Stripe customer.
func (s *Store) GetByStripeCustomer(ctx context.Context, customerID string) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"stripe_customer_id": customerID}).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// SetStripeCustomer records the provider customer ID after first contact.
func (s *Store) SetStripeCustomer(ctx context.Context, id primitive.ObjectID, customerID string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"stripe_customer_id": customerID,
		"updated_at":         time.Now().UTC(),
	}})
	return err
}

// ActivateSubscription links a subscription and grants premium.
func (s *Store) ActivateSubscription(ctx context.Context, id primitive.ObjectID, subscriptionID, status string, end *time.Time) error {
	set := bson.M{
		"tier":                   models.TierPremium,
		"stripe_subscription_id": subscriptionID,
		"subscription_status":    status,
		"updated_at":             time.Now().UTC(),
	}
	if end != nil {
		set["subscription_end"] = *end
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// SetSubscriptionStatus mirrors a provider status change without
// touching the tier (used for past_due and similar states).
func (s *Store) SetSubscriptionStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"subscription_status": status,
		"updated_at":          time.Now().UTC(),
	}})
	return err
}

// ClearSubscription drops back to the free tier when the provider
// reports the subscription deleted.
func (s *Store) ClearSubscription(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"tier":                models.TierFree,
			"subscription_status": "canceled",
			"updated_at":          time.Now().UTC(),
		},
		"$unset": bson.M{"stripe_subscription_id": ""},
	})
	return err
}
