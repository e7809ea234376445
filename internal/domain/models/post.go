// internal/domain/models/post.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post visibility scopes.
const (
	VisibilityPublic    = "public"
	VisibilityFollowers = "followers"
	VisibilityGroup     = "group"
	VisibilityPrivate   = "private"
)

// IsValidVisibility checks a visibility value from client input.
func IsValidVisibility(v string) bool {
	switch v {
	case VisibilityPublic, VisibilityFollowers, VisibilityGroup, VisibilityPrivate:
		return true
	}
	return false
}

// Trending score weights: likes + 2*comments + 3*shares.
const (
	TrendingCommentWeight = 2
	TrendingShareWeight   = 3
)

// Post is a feed item. Comments are embedded and ordered by creation;
// likes and bookmarks are ID sets kept duplicate-free by the store.
// Deletion is a soft flag so engagement history survives.
type Post struct {
	ID       primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	AuthorID primitive.ObjectID  `bson:"author_id" json:"authorId"`
	GroupID  *primitive.ObjectID `bson:"group_id,omitempty" json:"groupId,omitempty"`

	Content    string   `bson:"content" json:"content"`
	Media      []string `bson:"media,omitempty" json:"media,omitempty"`
	Tags       []string `bson:"tags,omitempty" json:"tags,omitempty"`
	Visibility string   `bson:"visibility" json:"visibility"`
	Pinned     bool     `bson:"pinned,omitempty" json:"pinned,omitempty"`

	Likes        IDSet     `bson:"likes,omitempty" json:"-"`
	Comments     []Comment `bson:"comments,omitempty" json:"comments,omitempty"`
	ShareCount   int       `bson:"share_count" json:"shareCount"`
	BookmarkedBy IDSet     `bson:"bookmarked_by,omitempty" json:"-"`

	Deleted   bool       `bson:"deleted,omitempty" json:"-"`
	CreatedAt time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updatedAt"`
	EditedAt  *time.Time `bson:"edited_at,omitempty" json:"editedAt,omitempty"`
}

// Comment is a reply embedded in its post.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	AuthorID  primitive.ObjectID `bson:"author_id" json:"authorId"`
	Content   string             `bson:"content" json:"content"`
	Likes     IDSet              `bson:"likes,omitempty" json:"-"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// TrendingScore computes the weighted engagement score used to rank
// recent posts.
func (p *Post) TrendingScore() int {
	return len(p.Likes) + TrendingCommentWeight*len(p.Comments) + TrendingShareWeight*p.ShareCount
}

// VisibleTo reports whether viewer may see this post outside of group
// channels. Group-scoped posts are gated separately by group membership.
//
// viewerFollows reports whether the viewer follows the post's author.
func (p *Post) VisibleTo(viewer primitive.ObjectID, viewerFollows bool) bool {
	if p.Deleted {
		return false
	}
	if p.AuthorID == viewer {
		return true
	}
	switch p.Visibility {
	case VisibilityPublic:
		return true
	case VisibilityFollowers:
		return viewerFollows
	default:
		return false
	}
}
