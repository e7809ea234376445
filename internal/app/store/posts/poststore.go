// internal/app/store/posts/poststore.go
package poststore

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

// ErrNotAuthor is returned when a mutation requires post authorship.
var ErrNotAuthor = errors.New("only the author may modify this post")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("posts")}
}

// withNotDeleted excludes soft-deleted posts from reads.
func withNotDeleted(filter bson.M) bson.M {
	out := bson.M{"deleted": bson.M{"$ne": true}}
	for k, v := range filter {
		out[k] = v
	}
	return out
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Post, error) {
	var p models.Post
	if err := s.c.FindOne(ctx, withNotDeleted(bson.M{"_id": id})).Decode(&p); err != nil {
		return models.Post{}, err
	}
	return p, nil
}

func (s *Store) Create(ctx context.Context, p models.Post) (models.Post, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	if p.Visibility == "" {
		p.Visibility = models.VisibilityPublic
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Post{}, err
	}
	return p, nil
}

// Edit updates content, visibility, tags, and the pinned flag.
// Author-only; the filter enforces it so a stale check cannot race.
func (s *Store) Edit(ctx context.Context, id, authorID primitive.ObjectID, content, visibility string, tags []string, pinned bool) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		withNotDeleted(bson.M{"_id": id, "author_id": authorID}),
		bson.M{"$set": bson.M{
			"content":    content,
			"visibility": visibility,
			"tags":       tags,
			"pinned":     pinned,
			"updated_at": now,
			"edited_at":  now,
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

// SoftDelete flags the post rather than removing the document.
func (s *Store) SoftDelete(ctx context.Context, id, authorID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		withNotDeleted(bson.M{"_id": id, "author_id": authorID}),
		bson.M{"$set": bson.M{"deleted": true, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ToggleLike adds the user to the likes set, or removes them when
// already present, and reports whether the post ended up liked.
func (s *Store) ToggleLike(ctx context.Context, id, userID primitive.ObjectID) (liked bool, likeCount int, err error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return false, 0, err
	}
	if p.Likes.Has(userID) {
		_, err = s.c.UpdateByID(ctx, id, bson.M{"$pull": bson.M{"likes": userID}})
		return false, len(p.Likes) - 1, err
	}
	_, err = s.c.UpdateByID(ctx, id, bson.M{"$addToSet": bson.M{"likes": userID}})
	return true, len(p.Likes) + 1, err
}

// ToggleBookmark mirrors ToggleLike over the bookmarked_by set.
func (s *Store) ToggleBookmark(ctx context.Context, id, userID primitive.ObjectID) (bookmarked bool, err error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if p.BookmarkedBy.Has(userID) {
		_, err = s.c.UpdateByID(ctx, id, bson.M{"$pull": bson.M{"bookmarked_by": userID}})
		return false, err
	}
	_, err = s.c.UpdateByID(ctx, id, bson.M{"$addToSet": bson.M{"bookmarked_by": userID}})
	return true, err
}

// RecordShare bumps the share counter.
func (s *Store) RecordShare(ctx context.Context, id primitive.ObjectID) (int, error) {
	var p models.Post
	err := s.c.FindOneAndUpdate(ctx,
		withNotDeleted(bson.M{"_id": id}),
		bson.M{"$inc": bson.M{"share_count": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err != nil {
		return 0, err
	}
	return p.ShareCount, nil
}

// AddComment appends a comment to the post's ordered list.
func (s *Store) AddComment(ctx context.Context, id primitive.ObjectID, c models.Comment) (models.Comment, error) {
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		withNotDeleted(bson.M{"_id": id}),
		bson.M{"$push": bson.M{"comments": c}},
	)
	if err != nil {
		return models.Comment{}, err
	}
	if res.MatchedCount == 0 {
		return models.Comment{}, mongo.ErrNoDocuments
	}
	return c, nil
}

// RemoveComment deletes a comment. The comment author and the post
// author may remove it; anyone else gets ErrNotAuthor. A comment ID
// that does not exist on the post is mongo.ErrNoDocuments for every
// requester.
func (s *Store) RemoveComment(ctx context.Context, postID, commentID, requesterID primitive.ObjectID) error {
	p, err := s.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	var target *models.Comment
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			target = &p.Comments[i]
			break
		}
	}
	if target == nil {
		return mongo.ErrNoDocuments
	}
	if p.AuthorID != requesterID && target.AuthorID != requesterID {
		return ErrNotAuthor
	}
	_, err = s.c.UpdateByID(ctx, postID, bson.M{
		"$pull": bson.M{"comments": bson.M{"_id": commentID}},
	})
	return err
}

/* Feed queries */

// GlobalFeed lists public, non-group posts, pinned first then newest.
func (s *Store) GlobalFeed(ctx context.Context, skip, limit int64) ([]models.Post, error) {
	filter := withNotDeleted(bson.M{
		"visibility": models.VisibilityPublic,
		"group_id":   bson.M{"$exists": false},
	})
	opts := options.Find().
		SetSort(bson.D{{Key: "pinned", Value: -1}, {Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	return s.find(ctx, filter, opts)
}

// PersonalFeed lists posts from the followed authors plus the viewer,
// restricted to public and followers-only visibility, newest first.
func (s *Store) PersonalFeed(ctx context.Context, viewerID primitive.ObjectID, following []primitive.ObjectID, skip, limit int64) ([]models.Post, error) {
	authors := append([]primitive.ObjectID{viewerID}, following...)
	filter := withNotDeleted(bson.M{
		"author_id": bson.M{"$in": authors},
		"group_id":  bson.M{"$exists": false},
		"$or": []bson.M{
			{"visibility": models.VisibilityPublic},
			{"visibility": models.VisibilityFollowers},
			{"author_id": viewerID},
		},
	})
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	return s.find(ctx, filter, opts)
}

// GroupFeed lists a group channel's posts, newest first.
func (s *Store) GroupFeed(ctx context.Context, groupID primitive.ObjectID, skip, limit int64) ([]models.Post, error) {
	filter := withNotDeleted(bson.M{"group_id": groupID})
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	return s.find(ctx, filter, opts)
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Post, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Trending ranks public posts created inside the window by the weighted
// engagement score likes + 2*comments + 3*shares, descending. The score
// is computed in the aggregation pipeline so ranking stays in the
// database.
func (s *Store) Trending(ctx context.Context, since time.Time, limit int64) ([]models.Post, error) {
	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: withNotDeleted(bson.M{
			"visibility": models.VisibilityPublic,
			"group_id":   bson.M{"$exists": false},
			"created_at": bson.M{"$gte": since},
		})}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"trending_score": bson.M{"$add": []any{
				bson.M{"$size": bson.M{"$ifNull": []any{"$likes", bson.A{}}}},
				bson.M{"$multiply": []any{
					models.TrendingCommentWeight,
					bson.M{"$size": bson.M{"$ifNull": []any{"$comments", bson.A{}}}},
				}},
				bson.M{"$multiply": []any{
					models.TrendingShareWeight,
					bson.M{"$ifNull": []any{"$share_count", 0}},
				}},
			}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "trending_score", Value: -1},
			{Key: "created_at", Value: -1},
		}}},
		bson.D{{Key: "$limit", Value: limit}},
	}

	cur, err := s.c.Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}
