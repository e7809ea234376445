// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/gatherhq/gatherhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrDuplicateGroupName = errors.New("a group with this name already exists")
	ErrAlreadyMember      = errors.New("already a member of this group")
	ErrNotMember          = errors.New("not a member of this group")
	ErrCreatorCannotLeave = errors.New("the creator cannot leave without transferring ownership")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// Create inserts a group with the creator as its sole admin member.
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	if g.Privacy == "" {
		g.Privacy = models.GroupPublic
	}
	g.Members = []models.GroupMember{{
		UserID:   g.CreatorID,
		Role:     models.RoleAdmin,
		JoinedAt: now,
	}}
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Group{}, ErrDuplicateGroupName
		}
		return models.Group{}, err
	}
	return g, nil
}

// UpdateSettings sets the admin-editable fields.
func (s *Store) UpdateSettings(ctx context.Context, id primitive.ObjectID, description string, settings models.GroupSettings) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"description": description,
		"settings":    settings,
		"updated_at":  time.Now().UTC(),
	}})
	return err
}

// AddMember appends a membership unless one already exists. The filter's
// $ne guard makes concurrent joins collapse into a single membership.
func (s *Store) AddMember(ctx context.Context, groupID, userID primitive.ObjectID, role string) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": groupID, "members.user_id": bson.M{"$ne": userID}},
		bson.M{
			"$push": bson.M{"members": models.GroupMember{UserID: userID, Role: role, JoinedAt: now}},
			"$pull": bson.M{"pending_requests": bson.M{"user_id": userID}},
			"$set":  bson.M{"updated_at": now},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrAlreadyMember
	}
	return nil
}

// QueueJoinRequest records a pending request for a private group.
// Requests are deduplicated the same way memberships are.
func (s *Store) QueueJoinRequest(ctx context.Context, groupID, userID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":                      groupID,
			"members.user_id":          bson.M{"$ne": userID},
			"pending_requests.user_id": bson.M{"$ne": userID},
		},
		bson.M{"$push": bson.M{"pending_requests": models.JoinRequest{
			UserID:      userID,
			RequestedAt: time.Now().UTC(),
		}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrAlreadyMember
	}
	return nil
}

// RejectRequest drops a pending request without adding a member.
func (s *Store) RejectRequest(ctx context.Context, groupID, userID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, groupID, bson.M{
		"$pull": bson.M{"pending_requests": bson.M{"user_id": userID}},
	})
	return err
}

// RemoveMember pulls a membership. The creator is blocked until
// ownership has been transferred.
func (s *Store) RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) error {
	g, err := s.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if g.CreatorID == userID {
		return ErrCreatorCannotLeave
	}
	if !g.IsMember(userID) {
		return ErrNotMember
	}
	_, err = s.c.UpdateByID(ctx, groupID, bson.M{
		"$pull": bson.M{"members": bson.M{"user_id": userID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// SetMemberRole changes an existing member's role.
func (s *Store) SetMemberRole(ctx context.Context, groupID, userID primitive.ObjectID, role string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": groupID, "members.user_id": userID},
		bson.M{"$set": bson.M{
			"members.$.role": role,
			"updated_at":     time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotMember
	}
	return nil
}

// TransferOwnership moves the creator flag to another member and
// promotes them to admin. The outgoing creator keeps admin.
func (s *Store) TransferOwnership(ctx context.Context, groupID, newOwnerID primitive.ObjectID) error {
	if err := s.SetMemberRole(ctx, groupID, newOwnerID, models.RoleAdmin); err != nil {
		return err
	}
	_, err := s.c.UpdateByID(ctx, groupID, bson.M{"$set": bson.M{
		"creator_id": newOwnerID,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// List returns groups visible to the viewer: public and private always,
// secret only where the viewer is a member.
func (s *Store) List(ctx context.Context, viewerID primitive.ObjectID, skip, limit int64) ([]models.Group, int64, error) {
	filter := bson.M{"$or": []bson.M{
		{"privacy": bson.M{"$in": []string{models.GroupPublic, models.GroupPrivate}}},
		{"members.user_id": viewerID},
	}}
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var groups []models.Group
	if err := cur.All(ctx, &groups); err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}
