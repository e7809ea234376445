// internal/app/features/groups/posts.go
package groups

import (
	"context"
	"net/http"
	"time"

	"github.com/gatherhq/gatherhub/internal/app/system/paging"
	"github.com/gatherhq/gatherhub/internal/app/system/respond"
	"github.com/gatherhq/gatherhub/internal/app/system/timeouts"
	"github.com/gatherhq/gatherhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// groupPostView mirrors the posts feature's wire shape for the group
// feed endpoint.
type groupPostView struct {
	ID           primitive.ObjectID `json:"id"`
	AuthorID     primitive.ObjectID `json:"authorId"`
	Content      string             `json:"content"`
	Media        []string           `json:"media,omitempty"`
	Tags         []string           `json:"tags,omitempty"`
	Pinned       bool               `json:"pinned"`
	LikeCount    int                `json:"likeCount"`
	Liked        bool               `json:"liked"`
	CommentCount int                `json:"commentCount"`
	ShareCount   int                `json:"shareCount"`
	CreatedAt    time.Time          `json:"createdAt"`
	EditedAt     *time.Time         `json:"editedAt,omitempty"`
}

// ServeGroupFeed handles GET /groups/{id}/posts. Posts in private and
// secret groups answer 403 to non-members; public group feeds are open.
func (h *Handler) ServeGroupFeed(w http.ResponseWriter, r *http.Request) {
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, viewerID, ok := h.loadVisible(ctx, w, r)
	if !ok {
		return
	}
	if g.Privacy != models.GroupPublic && !g.IsMember(viewerID) {
		respond.Forbidden(w, "you must be a member of this group")
		return
	}

	fetched, err := h.Posts.GroupFeed(ctx, g.ID, page.Skip(), page.LimitPlusOne())
	if err != nil {
		h.Log.Error("groups: feed", zap.Error(err), zap.String("group_id", g.ID.Hex()))
		respond.ServerError(w)
		return
	}

	hasMore, shown := page.Feed(len(fetched))
	views := make([]groupPostView, 0, shown)
	for _, p := range fetched[:shown] {
		views = append(views, groupPostView{
			ID:           p.ID,
			AuthorID:     p.AuthorID,
			Content:      p.Content,
			Media:        p.Media,
			Tags:         p.Tags,
			Pinned:       p.Pinned,
			LikeCount:    len(p.Likes),
			Liked:        p.Likes.Has(viewerID),
			CommentCount: len(p.Comments),
			ShareCount:   p.ShareCount,
			CreatedAt:    p.CreatedAt,
			EditedAt:     p.EditedAt,
		})
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"posts":   views,
		"page":    page.Page,
		"perPage": page.Limit,
		"hasMore": hasMore,
	})
}
