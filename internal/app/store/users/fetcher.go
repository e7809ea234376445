// internal/app/store/users/fetcher.go
package userstore

import (
	"context"

	"github.com/gatherhq/gatherhub/internal/app/system/auth"
	"github.com/gatherhq/gatherhub/internal/app/system/timeouts"
	"github.com/gatherhq/gatherhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher so the middleware loads fresh user
// data on each request. Deactivation and tier changes take effect
// immediately instead of waiting for token expiry.
type Fetcher struct {
	users *mongo.Collection
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{users: db.Collection("users")}
}

// FetchUser retrieves the user referenced by a verified token.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) (*auth.AuthUser, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"_id":    1,
		"name":   1,
		"email":  1,
		"tier":   1,
		"status": 1,
	})
	if err := f.users.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}
	if !u.IsActive() {
		return nil, auth.ErrInactiveAccount
	}

	return &auth.AuthUser{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Email: u.Email,
		Tier:  u.Tier,
	}, nil
}
