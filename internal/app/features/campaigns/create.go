// internal/app/features/campaigns/create.go
package campaigns

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gatherhq/gatherhub/internal/app/store/campaigns"
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

type createCampaignInput struct {
	Title       string    `json:"title" validate:"required,min=5,max=120" label:"title"`
	Description string    `json:"description" validate:"required,min=20,max=5000" label:"description"`
	Category    string    `json:"category" validate:"required" label:"category"`
	CoverURL    string    `json:"coverUrl" validate:"omitempty,url,max=500" label:"cover URL"`
	Goal        int64     `json:"goal" validate:"gte=100" label:"goal"`
	EndDate     time.Time `json:"endDate" validate:"required" label:"end date"`
	Draft       bool      `json:"draft"`
}

// HandleCreate handles POST /campaigns. Goals are in cents with a
// floor of 100, and the end date must be in the future.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}

	var in createCampaignInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	in.Title = normalize.Name(in.Title)
	in.Description = sanitize.Text(normalize.Text(in.Description))
	in.Category = normalize.Enum(in.Category)

	if res := inputval.Validate(in); res.HasErrors() {
		respond.ValidationErrors(w, res.Errors)
		return
	}
	if !models.IsValidCampaignCategory(in.Category) {
		respond.BadRequest(w, "invalid category")
		return
	}
	if !in.EndDate.After(time.Now()) {
		respond.BadRequest(w, "end date must be in the future")
		return
	}

	status := models.CampaignActive
	if in.Draft {
		status = models.CampaignDraft
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, err := h.Campaigns.Create(ctx, models.Campaign{
		OrganizerID: userID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		CoverURL:    in.CoverURL,
		Goal:        in.Goal,
		Status:      status,
		EndDate:     in.EndDate.UTC(),
	})
	if err != nil {
		h.Log.Error("campaigns: create", zap.Error(err), zap.String("user_id", userID.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusCreated, campaignViewOf(c, userID, time.Now()))
}

type editCampaignInput struct {
	Title       string    `json:"title" validate:"required,min=5,max=120" label:"title"`
	Description string    `json:"description" validate:"required,min=20,max=5000" label:"description"`
	CoverURL    string    `json:"coverUrl" validate:"omitempty,url,max=500" label:"cover URL"`
	EndDate     time.Time `json:"endDate" validate:"required" label:"end date"`
}

// HandleEdit handles PUT /campaigns/{id}. Organizer only. Goal and
// category are locked once the campaign exists; the end date may only
// move forward in time.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}

	var in editCampaignInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	in.Title = normalize.Name(in.Title)
	in.Description = sanitize.Text(normalize.Text(in.Description))

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
		respond.Forbidden(w, "only the organizer may edit this campaign")
		return
	}
	if in.EndDate.Before(c.EndDate) {
		respond.BadRequest(w, "end date can only be extended")
		return
	}

	err := h.Campaigns.Edit(ctx, c.ID, userID, campaignstore.EditFields{
		Title:       in.Title,
		Description: in.Description,
		CoverURL:    in.CoverURL,
		EndDate:     in.EndDate.UTC(),
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "campaign not found")
			return
		}
		h.Log.Error("campaigns: edit", zap.Error(err), zap.String("campaign_id", c.ID.Hex()))
		respond.ServerError(w)
		return
	}

	updated, err := h.Campaigns.GetByID(ctx, c.ID)
	if err != nil {
		h.Log.Error("campaigns: reload after edit", zap.Error(err), zap.String("campaign_id", c.ID.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, campaignViewOf(updated, userID, time.Now()))
}

// HandleSetStatus handles PUT /campaigns/{id}/status. Organizer only.
// Allowed moves: draft→active, active→paused, paused→active, and any
// non-completed state→canceled. Completion is derived from funding and
// never set by hand.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}

	var in struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	in.Status = normalize.Enum(in.Status)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, ok := h.loadCampaign(ctx, w, r)
	if !ok {
		return
	}
	if c.OrganizerID != userID {
		respond.Forbidden(w, "only the organizer may change campaign status")
		return
	}

	allowed := false
	switch in.Status {
	case models.CampaignActive:
		allowed = c.Status == models.CampaignDraft || c.Status == models.CampaignPaused
	case models.CampaignPaused:
		allowed = c.Status == models.CampaignActive
	case models.CampaignCanceled:
		allowed = c.Status != models.CampaignCompleted && c.Status != models.CampaignCanceled
	}
	if !allowed {
		respond.BadRequest(w, "invalid status transition")
		return
	}

	if err := h.Campaigns.SetStatus(ctx, c.ID, in.Status); err != nil {
		h.Log.Error("campaigns: set status", zap.Error(err),
			zap.String("campaign_id", c.ID.Hex()), zap.String("status", in.Status))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"status": in.Status})
}
