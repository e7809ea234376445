// internal/app/features/users/profile.go
package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	sysauth "github.com/gatherhq/gatherhub/internal/app/system/auth"
	"github.com/gatherhq/gatherhub/internal/app/system/inputval"
	"github.com/gatherhq/gatherhub/internal/app/system/normalize"
	"github.com/gatherhq/gatherhub/internal/app/system/respond"
	"github.com/gatherhq/gatherhub/internal/app/system/sanitize"
	"github.com/gatherhq/gatherhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ServeProfile handles GET /users/{id}. Deactivated accounts are
// indistinguishable from missing ones unless the caller is looking at
// their own profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "user not found")
			return
		}
		h.Log.Error("profile: load user", zap.Error(err), zap.String("user_id", id.Hex()))
		respond.ServerError(w)
		return
	}

	viewerID := sysauth.ViewerID(r)
	self := viewerID == user.ID
	if !user.IsActive() && !self {
		respond.NotFound(w, "user not found")
		return
	}

	respond.JSON(w, http.StatusOK, user.PublicProfile(self))
}

type updateProfileInput struct {
	Name      string `json:"name" validate:"required,min=2,max=80" label:"name"`
	Bio       string `json:"bio" validate:"max=500" label:"bio"`
	AvatarURL string `json:"avatarUrl" validate:"omitempty,url,max=500" label:"avatar URL"`
}

// HandleUpdateProfile handles PUT /users/me.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}

	var in updateProfileInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	in.Name = normalize.Name(in.Name)
	in.Bio = sanitize.Text(normalize.Text(in.Bio))

	if res := inputval.Validate(in); res.HasErrors() {
		respond.ValidationErrors(w, res.Errors)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, userID, in.Name, in.Bio, in.AvatarURL); err != nil {
		h.Log.Error("profile: update", zap.Error(err), zap.String("user_id", userID.Hex()))
		respond.ServerError(w)
		return
	}

	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		h.Log.Error("profile: reload after update", zap.Error(err), zap.String("user_id", userID.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, user.PublicProfile(true))
}

// HandleDeactivate handles POST /users/me/deactivate. Soft delete:
// the account stops being visible and cannot sign in, but the record
// and its content remain.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Users.Deactivate(ctx, userID); err != nil {
		h.Log.Error("profile: deactivate", zap.Error(err), zap.String("user_id", userID.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "account deactivated"})
}
