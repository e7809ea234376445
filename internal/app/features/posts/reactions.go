// internal/app/features/posts/reactions.go
package posts

import (
	"context"
	"errors"
	"net/http"

	sysauth "github.com/gatherhq/gatherhub/internal/app/system/auth"
	"github.com/gatherhq/gatherhub/internal/app/system/respond"
	"github.com/gatherhq/gatherhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// loadVisible fetches the post and enforces visibility for the viewer.
// It writes the error response itself; callers bail out on !ok.
func (h *Handler) loadVisible(ctx context.Context, w http.ResponseWriter, r *http.Request) (id primitive.ObjectID, viewerID primitive.ObjectID, ok bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid post id")
		return id, viewerID, false
	}
	viewerID = sysauth.ViewerID(r)

	p, err := h.Posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "post not found")
			return id, viewerID, false
		}
		h.Log.Error("posts: load post", zap.Error(err), zap.String("post_id", id.Hex()))
		respond.ServerError(w)
		return id, viewerID, false
	}

	visible, err := h.canView(ctx, p, viewerID)
	if err != nil {
		h.Log.Error("posts: visibility check", zap.Error(err), zap.String("post_id", id.Hex()))
		respond.ServerError(w)
		return id, viewerID, false
	}
	if !visible {
		if p.GroupID != nil {
			respond.Forbidden(w, "you must be a member of this group")
			return id, viewerID, false
		}
		respond.NotFound(w, "post not found")
		return id, viewerID, false
	}
	return id, viewerID, true
}

// HandleToggleLike handles POST /posts/{id}/like. Liking twice takes
// the like back; the response reports where the toggle landed.
func (h *Handler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id, viewerID, ok := h.loadVisible(ctx, w, r)
	if !ok {
		return
	}

	liked, count, err := h.Posts.ToggleLike(ctx, id, viewerID)
	if err != nil {
		h.Log.Error("posts: toggle like", zap.Error(err), zap.String("post_id", id.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"liked":     liked,
		"likeCount": count,
	})
}

// HandleToggleBookmark handles POST /posts/{id}/bookmark. The flag is
// kept on both the post and the user record so each side can list
// without a join.
func (h *Handler) HandleToggleBookmark(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id, viewerID, ok := h.loadVisible(ctx, w, r)
	if !ok {
		return
	}

	bookmarked, err := h.Posts.ToggleBookmark(ctx, id, viewerID)
	if err != nil {
		h.Log.Error("posts: toggle bookmark", zap.Error(err), zap.String("post_id", id.Hex()))
		respond.ServerError(w)
		return
	}
	if _, err := h.Users.ToggleBookmark(ctx, viewerID, id); err != nil {
		h.Log.Error("posts: mirror bookmark on user", zap.Error(err),
			zap.String("post_id", id.Hex()), zap.String("user_id", viewerID.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]bool{"bookmarked": bookmarked})
}

// HandleShare handles POST /posts/{id}/share. Shares only count; there
// is no per-user share record, so repeat shares increment again.
func (h *Handler) HandleShare(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id, _, ok := h.loadVisible(ctx, w, r)
	if !ok {
		return
	}

	count, err := h.Posts.RecordShare(ctx, id)
	if err != nil {
		h.Log.Error("posts: record share", zap.Error(err), zap.String("post_id", id.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]int{"shareCount": count})
}
