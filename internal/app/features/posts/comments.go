// internal/app/features/posts/comments.go
package posts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gatherhq/gatherhub/internal/app/store/posts"
	"github.com/gatherhq/gatherhub/internal/app/system/inputval"
	"github.com/gatherhq/gatherhub/internal/app/system/normalize"
	"github.com/gatherhq/gatherhub/internal/app/system/respond"
	"github.com/gatherhq/gatherhub/internal/app/system/sanitize"
	"github.com/gatherhq/gatherhub/internal/app/system/timeouts"
	"github.com/gatherhq/gatherhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type commentInput struct {
	Content string `json:"content" validate:"required,min=1,max=1000" label:"content"`
}

// HandleAddComment handles POST /posts/{id}/comments.
func (h *Handler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	var in commentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	in.Content = sanitize.Text(normalize.Text(in.Content))
	if res := inputval.Validate(in); res.HasErrors() {
		respond.ValidationErrors(w, res.Errors)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id, viewerID, ok := h.loadVisible(ctx, w, r)
	if !ok {
		return
	}

	c, err := h.Posts.AddComment(ctx, id, models.Comment{
		AuthorID: viewerID,
		Content:  in.Content,
	})
	if err != nil {
		h.Log.Error("posts: add comment", zap.Error(err), zap.String("post_id", id.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusCreated, commentView{
		ID:        c.ID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		LikeCount: len(c.Likes),
		CreatedAt: c.CreatedAt,
	})
}

// HandleRemoveComment handles DELETE /posts/{id}/comments/{commentID}.
// The comment's author and the post's author may both remove it.
func (h *Handler) HandleRemoveComment(w http.ResponseWriter, r *http.Request) {
	commentID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "commentID"))
	if err != nil {
		respond.BadRequest(w, "invalid comment id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id, viewerID, ok := h.loadVisible(ctx, w, r)
	if !ok {
		return
	}

	if err := h.Posts.RemoveComment(ctx, id, commentID, viewerID); err != nil {
		switch {
		case errors.Is(err, poststore.ErrNotAuthor):
			respond.Forbidden(w, "you cannot remove this comment")
		case errors.Is(err, mongo.ErrNoDocuments):
			respond.NotFound(w, "comment not found")
		default:
			h.Log.Error("posts: remove comment", zap.Error(err),
				zap.String("post_id", id.Hex()), zap.String("comment_id", commentID.Hex()))
			respond.ServerError(w)
		}
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "comment removed"})
}
