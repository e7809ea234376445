// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

/*
EnsureAll is called at startup from the EnsureSchema hook. Index creation is
idempotent; errors are aggregated so every problem is visible and startup can
fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensurePosts(ctx, db); err != nil {
		problems = append(problems, "posts: "+err.Error())
	}
	if err := ensureGroups(ctx, db); err != nil {
		problems = append(problems, "groups: "+err.Error())
	}
	if err := ensureCampaigns(ctx, db); err != nil {
		problems = append(problems, "campaigns: "+err.Error())
	}
	if err := ensurePasswordResets(ctx, db); err != nil {
		problems = append(problems, "password_resets: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("users").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email"),
		},
		{
			Keys:    bson.D{{Key: "stripe_customer_id", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("stripe_customer"),
		},
	})
	return err
}

func ensurePosts(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("posts").Indexes().CreateMany(ctx, []mongo.IndexModel{
		// Global feed: public posts pinned-first then newest-first.
		{
			Keys:    bson.D{{Key: "visibility", Value: 1}, {Key: "pinned", Value: -1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("feed_visibility"),
		},
		// Personalized feed and author lookups.
		{
			Keys:    bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("author_created"),
		},
		// Group channel listing.
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetSparse(true).SetName("group_created"),
		},
		// Trending window scan.
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_at"),
		},
	})
	return err
}

func ensureGroups(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("groups").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_name"),
		},
		{
			Keys:    bson.D{{Key: "members.user_id", Value: 1}},
			Options: options.Index().SetName("member_user"),
		},
	})
	return err
}

func ensureCampaigns(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("campaigns").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("status_created"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("category_created"),
		},
		// Webhook idempotency lookups by external payment reference.
		{
			Keys:    bson.D{{Key: "donations.payment_ref", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("donation_payment_ref"),
		},
	})
	return err
}

func ensurePasswordResets(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("password_resets").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token_hash", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_token_hash"),
		},
		// Mongo reaps expired reset tokens on its own.
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expires"),
		},
	})
	return err
}
