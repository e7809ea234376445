// internal/app/features/campaigns/updates.go
package campaigns

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
	"github.com/gatherhq/gatherhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type campaignUpdateInput struct {
	Title   string `json:"title" validate:"required,min=3,max=120" label:"title"`
	Content string `json:"content" validate:"required,min=1,max=5000" label:"content"`
}

// HandleAddUpdate handles POST /campaigns/{id}/updates. Organizer
// only; the update log is append only.
func (h *Handler) HandleAddUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}

	var in campaignUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	in.Title = normalize.Name(in.Title)
	in.Content = sanitize.Text(normalize.Text(in.Content))

	if res := inputval.Validate(in); res.HasErrors() {
		respond.ValidationErrors(w, res.Errors)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, ok := h.loadCampaign(ctx, w, r)
	if !ok {
		return
	}
	if c.OrganizerID != userID {
		respond.Forbidden(w, "only the organizer may post updates")
		return
	}

	u, err := h.Campaigns.AppendUpdate(ctx, c.ID, userID, models.CampaignUpdate{
		Title:   in.Title,
		Content: in.Content,
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "campaign not found")
			return
		}
		h.Log.Error("campaigns: append update", zap.Error(err), zap.String("campaign_id", c.ID.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusCreated, u)
}

// HandleToggleFollow handles POST /campaigns/{id}/follow.
func (h *Handler) HandleToggleFollow(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, ok := h.loadCampaign(ctx, w, r)
	if !ok {
		return
	}
	if c.Status == models.CampaignDraft && c.OrganizerID != userID {
		respond.NotFound(w, "campaign not found")
		return
	}

	following, err := h.Campaigns.ToggleFollow(ctx, c.ID, userID)
	if err != nil {
		h.Log.Error("campaigns: toggle follow", zap.Error(err), zap.String("campaign_id", c.ID.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]bool{"following": following})
}
