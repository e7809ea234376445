// internal/app/features/users/follow.go
package users

import (
	"context"
	"errors"
	"net/http"

	"github.com/gatherhq/gatherhub/internal/app/store/users"
	sysauth "github.com/gatherhq/gatherhub/internal/app/system/auth"
	"github.com/gatherhq/gatherhub/internal/app/system/paging"
	"github.com/gatherhq/gatherhub/internal/app/system/respond"
	"github.com/gatherhq/gatherhub/internal/app/system/timeouts"
	"github.com/gatherhq/gatherhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HandleFollow handles POST /users/{id}/follow.
func (h *Handler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	h.handleFollowChange(w, r, true)
}

// HandleUnfollow handles DELETE /users/{id}/follow.
func (h *Handler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	h.handleFollowChange(w, r, false)
}

func (h *Handler) handleFollowChange(w http.ResponseWriter, r *http.Request, follow bool) {
	userID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}
	targetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	target, err := h.Users.GetByID(ctx, targetID)
	if err != nil || !target.IsActive() {
		respond.NotFound(w, "user not found")
		return
	}

	if follow {
		err = h.Users.Follow(ctx, userID, targetID)
	} else {
		err = h.Users.Unfollow(ctx, userID, targetID)
	}
	if err != nil {
		if errors.Is(err, userstore.ErrSelfFollow) {
			respond.BadRequest(w, "cannot follow yourself")
			return
		}
		if errors.Is(err, userstore.ErrAlreadyFollowing) {
			respond.Error(w, http.StatusConflict, "already following this user")
			return
		}
		h.Log.Error("follow: update", zap.Error(err),
			zap.String("user_id", userID.Hex()),
			zap.String("target_id", targetID.Hex()),
			zap.Bool("follow", follow))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]bool{"following": follow})
}

type userListResponse struct {
	Users   []models.Profile `json:"users"`
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	Pages   int64            `json:"pages"`
	PerPage int              `json:"perPage"`
}

// ServeFollowers handles GET /users/{id}/followers.
func (h *Handler) ServeFollowers(w http.ResponseWriter, r *http.Request) {
	h.serveUserList(w, r, func(u models.User) models.IDSet { return u.Followers })
}

// ServeFollowing handles GET /users/{id}/following.
func (h *Handler) ServeFollowing(w http.ResponseWriter, r *http.Request) {
	h.serveUserList(w, r, func(u models.User) models.IDSet { return u.Following })
}

func (h *Handler) serveUserList(w http.ResponseWriter, r *http.Request, pick func(models.User) models.IDSet) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "user not found")
			return
		}
		h.Log.Error("follow: load user for listing", zap.Error(err), zap.String("user_id", id.Hex()))
		respond.ServerError(w)
		return
	}
	if !user.IsActive() {
		respond.NotFound(w, "user not found")
		return
	}

	ids := pick(user)
	page := paging.Parse(r)

	start := int(page.Skip())
	if start > len(ids) {
		start = len(ids)
	}
	end := start + page.Limit
	if end > len(ids) {
		end = len(ids)
	}

	listed, err := h.Users.ListByIDs(ctx, ids[start:end])
	if err != nil {
		h.Log.Error("follow: list users", zap.Error(err), zap.String("user_id", id.Hex()))
		respond.ServerError(w)
		return
	}

	profiles := make([]models.Profile, 0, len(listed))
	for _, u := range listed {
		if !u.IsActive() {
			continue
		}
		profiles = append(profiles, u.PublicProfile(false))
	}

	respond.JSON(w, http.StatusOK, userListResponse{
		Users:   profiles,
		Total:   len(ids),
		Page:    page.Page,
		Pages:   page.Pages(int64(len(ids))),
		PerPage: page.Limit,
	})
}
