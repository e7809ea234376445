// internal/app/store/passwordresets/resetstore.go
package resetstore

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

// ErrTokenInvalid covers unknown, expired, and already-used tokens so
// callers cannot distinguish the three.
var ErrTokenInvalid = errors.New("invalid or expired reset token")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("password_resets")}
}

// Create records a new reset token for the user. Only the hash of the
// token is stored; earlier unused tokens for the same user are voided.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID, tokenHash string, ttl time.Duration) (models.PasswordReset, error) {
	now := time.Now().UTC()
	if _, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "used": false},
		bson.M{"$set": bson.M{"used": true}},
	); err != nil {
		return models.PasswordReset{}, err
	}
	pr := models.PasswordReset{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: now.Add(ttl),
		Used:      false,
		CreatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, pr); err != nil {
		return models.PasswordReset{}, err
	}
	return pr, nil
}

// Redeem atomically consumes an unexpired, unused token and returns the
// owning record. A second redemption of the same token fails.
func (s *Store) Redeem(ctx context.Context, tokenHash string) (models.PasswordReset, error) {
	var pr models.PasswordReset
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"token_hash": tokenHash,
			"used":       false,
			"expires_at": bson.M{"$gt": time.Now().UTC()},
		},
		bson.M{"$set": bson.M{"used": true}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&pr)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.PasswordReset{}, ErrTokenInvalid
		}
		return models.PasswordReset{}, err
	}
	return pr, nil
}
