package models_test

import (
	"testing"

	"github.com/gatherhq/gatherhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPost_TrendingScore(t *testing.T) {
	likes := make(models.IDSet, 10)
	for i := range likes {
		likes[i] = primitive.NewObjectID()
	}
	comments := make([]models.Comment, 5)

	p := models.Post{Likes: likes, Comments: comments, ShareCount: 2}
	// 10 likes + 2*5 comments + 3*2 shares.
	if got := p.TrendingScore(); got != 26 {
		t.Errorf("TrendingScore() = %d, want 26", got)
	}
}

func TestPost_VisibleTo(t *testing.T) {
	author := primitive.NewObjectID()
	follower := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	tests := []struct {
		name          string
		visibility    string
		deleted       bool
		viewer        primitive.ObjectID
		viewerFollows bool
		want          bool
	}{
		{"public to anyone", models.VisibilityPublic, false, stranger, false, true},
		{"followers to follower", models.VisibilityFollowers, false, follower, true, true},
		{"followers to stranger", models.VisibilityFollowers, false, stranger, false, false},
		{"private to stranger", models.VisibilityPrivate, false, stranger, false, false},
		{"private to author", models.VisibilityPrivate, false, author, false, true},
		{"deleted to author", models.VisibilityPublic, true, author, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.Post{AuthorID: author, Visibility: tt.visibility, Deleted: tt.deleted}
			if got := p.VisibleTo(tt.viewer, tt.viewerFollows); got != tt.want {
				t.Errorf("VisibleTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGroup_Roles(t *testing.T) {
	creator := primitive.NewObjectID()
	moderator := primitive.NewObjectID()
	member := primitive.NewObjectID()
	outsider := primitive.NewObjectID()

	g := models.Group{
		CreatorID: creator,
		Privacy:   models.GroupSecret,
		Members: []models.GroupMember{
			{UserID: creator, Role: models.RoleAdmin},
			{UserID: moderator, Role: models.RoleModerator},
			{UserID: member, Role: models.RoleMember},
		},
		Settings: models.GroupSettings{AllowMemberPosts: false},
	}

	if !g.IsAdmin(creator) || g.IsAdmin(moderator) {
		t.Error("admin check wrong")
	}
	if !g.CanModerate(moderator) || g.CanModerate(member) {
		t.Error("moderate check wrong")
	}
	// member_posts off: only moderators and up may post.
	if g.CanPost(member) {
		t.Error("plain member posted with member posts disabled")
	}
	if !g.CanPost(moderator) {
		t.Error("moderator should always post")
	}
	if g.CanPost(outsider) {
		t.Error("outsider posted")
	}
	// Secret group is invisible to non-members.
	if g.VisibleTo(outsider) {
		t.Error("secret group visible to outsider")
	}
	if !g.VisibleTo(member) {
		t.Error("secret group hidden from member")
	}
}
