package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/gatherhq/gatherhub/internal/app/system/normalize"
	"github.com/gatherhq/gatherhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates an active free-tier test user.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Email:        normalize.Email(email),
		PasswordHash: "not-a-real-hash",
		Status:       models.StatusActive,
		Tier:         models.TierFree,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateUserWithPassword creates an active user whose password hash
// verifies against the given plaintext. For login-flow tests.
func (f *Fixtures) CreateUserWithPassword(ctx context.Context, name, email, password string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash test password: %v", err)
	}

	user := f.CreateUser(ctx, name, email)
	_, err = f.db.Collection("users").UpdateByID(ctx, user.ID, map[string]any{
		"$set": map[string]any{"password_hash": string(hash)},
	})
	if err != nil {
		f.t.Fatalf("failed to set test password: %v", err)
	}
	user.PasswordHash = string(hash)
	return user
}

// CreatePost creates a post by the given author with the given visibility.
func (f *Fixtures) CreatePost(ctx context.Context, authorID primitive.ObjectID, content, visibility string) models.Post {
	f.t.Helper()

	now := time.Now().UTC()
	post := models.Post{
		ID:         primitive.NewObjectID(),
		AuthorID:   authorID,
		Content:    content,
		Visibility: visibility,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("posts").InsertOne(ctx, post); err != nil {
		f.t.Fatalf("failed to create test post: %v", err)
	}
	return post
}

// CreateGroupPost creates a group-scoped post in the given group.
func (f *Fixtures) CreateGroupPost(ctx context.Context, authorID, groupID primitive.ObjectID, content string) models.Post {
	f.t.Helper()

	now := time.Now().UTC()
	post := models.Post{
		ID:         primitive.NewObjectID(),
		AuthorID:   authorID,
		GroupID:    &groupID,
		Content:    content,
		Visibility: models.VisibilityGroup,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("posts").InsertOne(ctx, post); err != nil {
		f.t.Fatalf("failed to create test group post: %v", err)
	}
	return post
}

// CreateGroup creates a group with the creator as its sole admin member.
func (f *Fixtures) CreateGroup(ctx context.Context, creatorID primitive.ObjectID, name, privacy string) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	group := models.Group{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Privacy:   privacy,
		CreatorID: creatorID,
		Members: []models.GroupMember{
			{UserID: creatorID, Role: models.RoleAdmin, JoinedAt: now},
		},
		Settings:  models.GroupSettings{AllowMemberPosts: true},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("groups").InsertOne(ctx, group); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return group
}

// AddGroupMember appends a member with the given role directly to the
// group document.
func (f *Fixtures) AddGroupMember(ctx context.Context, groupID, userID primitive.ObjectID, role string) {
	f.t.Helper()

	_, err := f.db.Collection("groups").UpdateByID(ctx, groupID, map[string]any{
		"$push": map[string]any{"members": models.GroupMember{
			UserID:   userID,
			Role:     role,
			JoinedAt: time.Now().UTC(),
		}},
	})
	if err != nil {
		f.t.Fatalf("failed to add test group member: %v", err)
	}
}

// CreateCampaign creates an active campaign ending the given duration
// from now.
func (f *Fixtures) CreateCampaign(ctx context.Context, organizerID primitive.ObjectID, title string, goal int64, runtime time.Duration) models.Campaign {
	f.t.Helper()

	now := time.Now().UTC()
	campaign := models.Campaign{
		ID:          primitive.NewObjectID(),
		OrganizerID: organizerID,
		Title:       title,
		Description: "A test campaign raising funds for a good cause.",
		Category:    "community",
		Goal:        goal,
		Status:      models.CampaignActive,
		EndDate:     now.Add(runtime),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("campaigns").InsertOne(ctx, campaign); err != nil {
		f.t.Fatalf("failed to create test campaign: %v", err)
	}
	return campaign
}
