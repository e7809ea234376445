// internal/app/features/groups/create.go
package groups

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gatherhq/gatherhub/internal/app/store/groups"
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

type createGroupInput struct {
	Name             string `json:"name" validate:"required,min=3,max=80" label:"name"`
	Description      string `json:"description" validate:"max=1000" label:"description"`
	Privacy          string `json:"privacy" label:"privacy"`
	AllowMemberPosts *bool  `json:"allowMemberPosts"`
}

// HandleCreate handles POST /groups. The creator becomes the group's
// sole admin.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}

	var in createGroupInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	in.Name = normalize.Name(in.Name)
	in.Description = sanitize.Text(normalize.Text(in.Description))
	if in.Privacy == "" {
		in.Privacy = models.GroupPublic
	}
	in.Privacy = normalize.Enum(in.Privacy)

	if res := inputval.Validate(in); res.HasErrors() {
		respond.ValidationErrors(w, res.Errors)
		return
	}
	if !models.IsValidGroupPrivacy(in.Privacy) {
		respond.BadRequest(w, "invalid privacy level")
		return
	}

	allowMemberPosts := true
	if in.AllowMemberPosts != nil {
		allowMemberPosts = *in.AllowMemberPosts
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.Groups.Create(ctx, models.Group{
		Name:        in.Name,
		Description: in.Description,
		Privacy:     in.Privacy,
		CreatorID:   userID,
		Settings:    models.GroupSettings{AllowMemberPosts: allowMemberPosts},
	})
	if err != nil {
		if errors.Is(err, groupstore.ErrDuplicateGroupName) {
			respond.Error(w, http.StatusConflict, "a group with this name already exists")
			return
		}
		h.Log.Error("groups: create", zap.Error(err), zap.String("user_id", userID.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusCreated, groupViewOf(g, userID))
}

type updateGroupInput struct {
	Description      string `json:"description" validate:"max=1000" label:"description"`
	AllowMemberPosts *bool  `json:"allowMemberPosts"`
}

// HandleUpdateSettings handles PUT /groups/{id}/settings. Admin only.
func (h *Handler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid group id")
		return
	}

	var in updateGroupInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	in.Description = sanitize.Text(normalize.Text(in.Description))
	if res := inputval.Validate(in); res.HasErrors() {
		respond.ValidationErrors(w, res.Errors)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "group not found")
			return
		}
		h.Log.Error("groups: load for settings", zap.Error(err), zap.String("group_id", id.Hex()))
		respond.ServerError(w)
		return
	}
	if !g.VisibleTo(userID) {
		respond.NotFound(w, "group not found")
		return
	}
	if !g.IsAdmin(userID) {
		respond.Forbidden(w, "only a group admin may change settings")
		return
	}

	settings := g.Settings
	if in.AllowMemberPosts != nil {
		settings.AllowMemberPosts = *in.AllowMemberPosts
	}

	if err := h.Groups.UpdateSettings(ctx, id, in.Description, settings); err != nil {
		h.Log.Error("groups: update settings", zap.Error(err), zap.String("group_id", id.Hex()))
		respond.ServerError(w)
		return
	}

	updated, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		h.Log.Error("groups: reload after settings", zap.Error(err), zap.String("group_id", id.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, groupViewOf(updated, userID))
}
