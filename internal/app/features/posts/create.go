// internal/app/features/posts/create.go
package posts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gatherhq/gatherhub/internal/app/store/posts"
	sysauth "github.com/gatherhq/gatherhub/internal/app/system/auth"
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

type createPostInput struct {
	Content    string   `json:"content" validate:"required,min=1,max=5000" label:"content"`
	Media      []string `json:"media" validate:"max=10,dive,url" label:"media"`
	Tags       []string `json:"tags" validate:"max=10" label:"tags"`
	Visibility string   `json:"visibility" label:"visibility"`
	GroupID    string   `json:"groupId" label:"group"`
}

// HandleCreate handles POST /posts. A post aimed at a group requires
// posting rights there and always carries group visibility.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}

	var in createPostInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	in.Content = sanitize.Text(normalize.Text(in.Content))
	in.Tags = normalize.Tags(in.Tags)
	if in.Visibility == "" {
		in.Visibility = models.VisibilityPublic
	}
	in.Visibility = normalize.Enum(in.Visibility)

	if res := inputval.Validate(in); res.HasErrors() {
		respond.ValidationErrors(w, res.Errors)
		return
	}
	if !models.IsValidVisibility(in.Visibility) {
		respond.BadRequest(w, "invalid visibility")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	post := models.Post{
		AuthorID:   userID,
		Content:    in.Content,
		Media:      in.Media,
		Tags:       in.Tags,
		Visibility: in.Visibility,
	}

	if in.GroupID != "" {
		groupID, err := primitive.ObjectIDFromHex(in.GroupID)
		if err != nil {
			respond.BadRequest(w, "invalid group id")
			return
		}
		g, err := h.Groups.GetByID(ctx, groupID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respond.NotFound(w, "group not found")
				return
			}
			h.Log.Error("posts: load group for create", zap.Error(err), zap.String("group_id", groupID.Hex()))
			respond.ServerError(w)
			return
		}
		if !g.CanPost(userID) {
			respond.Forbidden(w, "you cannot post in this group")
			return
		}
		post.GroupID = &groupID
		post.Visibility = models.VisibilityGroup
	}

	created, err := h.Posts.Create(ctx, post)
	if err != nil {
		h.Log.Error("posts: create", zap.Error(err), zap.String("user_id", userID.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusCreated, viewOf(created, userID))
}

type editPostInput struct {
	Content    string   `json:"content" validate:"required,min=1,max=5000" label:"content"`
	Tags       []string `json:"tags" validate:"max=10" label:"tags"`
	Visibility string   `json:"visibility" label:"visibility"`
	Pinned     bool     `json:"pinned"`
}

// HandleEdit handles PUT /posts/{id}. Only the author may edit, and a
// group post keeps group visibility whatever the payload says.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid post id")
		return
	}

	var in editPostInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	in.Content = sanitize.Text(normalize.Text(in.Content))
	in.Tags = normalize.Tags(in.Tags)
	if in.Visibility == "" {
		in.Visibility = models.VisibilityPublic
	}
	in.Visibility = normalize.Enum(in.Visibility)

	if res := inputval.Validate(in); res.HasErrors() {
		respond.ValidationErrors(w, res.Errors)
		return
	}
	if !models.IsValidVisibility(in.Visibility) {
		respond.BadRequest(w, "invalid visibility")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	existing, err := h.Posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "post not found")
			return
		}
		h.Log.Error("posts: load post for edit", zap.Error(err), zap.String("post_id", id.Hex()))
		respond.ServerError(w)
		return
	}
	if existing.GroupID != nil {
		in.Visibility = models.VisibilityGroup
	}

	if err := h.Posts.Edit(ctx, id, userID, in.Content, in.Visibility, in.Tags, in.Pinned); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Filter includes the author, so a mismatch surfaces here.
			if existing.AuthorID != userID {
				respond.Forbidden(w, "only the author may edit this post")
				return
			}
			respond.NotFound(w, "post not found")
			return
		}
		h.Log.Error("posts: edit", zap.Error(err), zap.String("post_id", id.Hex()))
		respond.ServerError(w)
		return
	}

	updated, err := h.Posts.GetByID(ctx, id)
	if err != nil {
		h.Log.Error("posts: reload after edit", zap.Error(err), zap.String("post_id", id.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, viewOf(updated, userID))
}

// HandleDelete handles DELETE /posts/{id}. Soft delete: the document
// stays for audit but leaves every feed and lookup.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid post id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Posts.SoftDelete(ctx, id, userID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			existing, gerr := h.Posts.GetByID(ctx, id)
			if gerr == nil && existing.AuthorID != userID {
				respond.Forbidden(w, "only the author may delete this post")
				return
			}
			respond.NotFound(w, "post not found")
			return
		}
		if errors.Is(err, poststore.ErrNotAuthor) {
			respond.Forbidden(w, "only the author may delete this post")
			return
		}
		h.Log.Error("posts: delete", zap.Error(err), zap.String("post_id", id.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "post deleted"})
}
