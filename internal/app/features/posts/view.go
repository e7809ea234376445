// internal/app/features/posts/view.go
package posts

import (
	"context"
	"errors"
	"net/http"
	"time"

	sysauth "github.com/gatherhq/gatherhub/internal/app/system/auth"
	"github.com/gatherhq/gatherhub/internal/app/system/respond"
	"github.com/gatherhq/gatherhub/internal/app/system/timeouts"
	"github.com/gatherhq/gatherhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// postView is the wire shape for a post. Raw liker and bookmarker ID
// sets stay server side; the viewer gets counts plus their own state.
type postView struct {
	ID           primitive.ObjectID  `json:"id"`
	AuthorID     primitive.ObjectID  `json:"authorId"`
	GroupID      *primitive.ObjectID `json:"groupId,omitempty"`
	Content      string              `json:"content"`
	Media        []string            `json:"media,omitempty"`
	Tags         []string            `json:"tags,omitempty"`
	Visibility   string              `json:"visibility"`
	Pinned       bool                `json:"pinned"`
	LikeCount    int                 `json:"likeCount"`
	Liked        bool                `json:"liked"`
	CommentCount int                 `json:"commentCount"`
	ShareCount   int                 `json:"shareCount"`
	Bookmarked   bool                `json:"bookmarked"`
	CreatedAt    time.Time           `json:"createdAt"`
	EditedAt     *time.Time          `json:"editedAt,omitempty"`
}

type commentView struct {
	ID        primitive.ObjectID `json:"id"`
	AuthorID  primitive.ObjectID `json:"authorId"`
	Content   string             `json:"content"`
	LikeCount int                `json:"likeCount"`
	CreatedAt time.Time          `json:"createdAt"`
}

func viewOf(p models.Post, viewerID primitive.ObjectID) postView {
	return postView{
		ID:           p.ID,
		AuthorID:     p.AuthorID,
		GroupID:      p.GroupID,
		Content:      p.Content,
		Media:        p.Media,
		Tags:         p.Tags,
		Visibility:   p.Visibility,
		Pinned:       p.Pinned,
		LikeCount:    len(p.Likes),
		Liked:        p.Likes.Has(viewerID),
		CommentCount: len(p.Comments),
		ShareCount:   p.ShareCount,
		Bookmarked:   p.BookmarkedBy.Has(viewerID),
		CreatedAt:    p.CreatedAt,
		EditedAt:     p.EditedAt,
	}
}

func viewsOf(posts []models.Post, viewerID primitive.ObjectID) []postView {
	out := make([]postView, 0, len(posts))
	for _, p := range posts {
		out = append(out, viewOf(p, viewerID))
	}
	return out
}

func commentViews(comments []models.Comment) []commentView {
	out := make([]commentView, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentView{
			ID:        c.ID,
			AuthorID:  c.AuthorID,
			Content:   c.Content,
			LikeCount: len(c.Likes),
			CreatedAt: c.CreatedAt,
		})
	}
	return out
}

// canView reports whether the viewer may see the post, considering
// author-level visibility and, for group posts, group privacy.
// Group posts in private or secret groups require membership.
func (h *Handler) canView(ctx context.Context, p models.Post, viewerID primitive.ObjectID) (bool, error) {
	if p.GroupID != nil {
		g, err := h.Groups.GetByID(ctx, *p.GroupID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return false, nil
			}
			return false, err
		}
		if g.Privacy != models.GroupPublic && !g.IsMember(viewerID) {
			return false, nil
		}
		return true, nil
	}

	viewerFollows := false
	if !viewerID.IsZero() && viewerID != p.AuthorID && p.Visibility == models.VisibilityFollowers {
		author, err := h.Users.GetByID(ctx, p.AuthorID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return false, nil
			}
			return false, err
		}
		viewerFollows = author.Followers.Has(viewerID)
	}
	return p.VisibleTo(viewerID, viewerFollows), nil
}

// ServePost handles GET /posts/{id}, returning the post with its
// comment list.
func (h *Handler) ServePost(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid post id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "post not found")
			return
		}
		h.Log.Error("posts: load post", zap.Error(err), zap.String("post_id", id.Hex()))
		respond.ServerError(w)
		return
	}

	viewerID := sysauth.ViewerID(r)
	ok, err := h.canView(ctx, p, viewerID)
	if err != nil {
		h.Log.Error("posts: visibility check", zap.Error(err), zap.String("post_id", id.Hex()))
		respond.ServerError(w)
		return
	}
	if !ok {
		// Group posts answer 403 so members-only content is explicit;
		// author-level restrictions stay indistinguishable from a
		// missing post.
		if p.GroupID != nil {
			respond.Forbidden(w, "you must be a member of this group")
			return
		}
		respond.NotFound(w, "post not found")
		return
	}

	type postDetail struct {
		postView
		Comments []commentView `json:"comments"`
	}
	respond.JSON(w, http.StatusOK, postDetail{
		postView: viewOf(p, viewerID),
		Comments: commentViews(p.Comments),
	})
}
