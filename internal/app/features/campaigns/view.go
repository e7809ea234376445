// internal/app/features/campaigns/view.go
package campaigns

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gatherhq/gatherhub/internal/app/store/campaigns"
	sysauth "github.com/gatherhq/gatherhub/internal/app/system/auth"
	"github.com/gatherhq/gatherhub/internal/app/system/normalize"
	"github.com/gatherhq/gatherhub/internal/app/system/paging"
	"github.com/gatherhq/gatherhub/internal/app/system/respond"
	"github.com/gatherhq/gatherhub/internal/app/system/timeouts"
	"github.com/gatherhq/gatherhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// campaignView is the wire shape for a campaign. The derived funding
// fields are computed at read time so they are always current.
type campaignView struct {
	ID              primitive.ObjectID      `json:"id"`
	OrganizerID     primitive.ObjectID      `json:"organizerId"`
	Title           string                  `json:"title"`
	Description     string                  `json:"description"`
	Category        string                  `json:"category"`
	CoverURL        string                  `json:"coverUrl,omitempty"`
	Goal            int64                   `json:"goal"`
	Raised          int64                   `json:"raised"`
	DonorCount      int                     `json:"donorCount"`
	PercentFunded   float64                 `json:"percentFunded"`
	AmountRemaining int64                   `json:"amountRemaining"`
	DaysLeft        int                     `json:"daysLeft"`
	IsActive        bool                    `json:"isActive"`
	FollowerCount   int                     `json:"followerCount"`
	Following       bool                    `json:"following"`
	Status          string                  `json:"status"`
	EndDate         time.Time               `json:"endDate"`
	Updates         []models.CampaignUpdate `json:"updates,omitempty"`
	CreatedAt       time.Time               `json:"createdAt"`
}

func campaignViewOf(c models.Campaign, viewerID primitive.ObjectID, now time.Time) campaignView {
	return campaignView{
		ID:              c.ID,
		OrganizerID:     c.OrganizerID,
		Title:           c.Title,
		Description:     c.Description,
		Category:        c.Category,
		CoverURL:        c.CoverURL,
		Goal:            c.Goal,
		Raised:          c.Raised,
		DonorCount:      c.DonorCount,
		PercentFunded:   c.PercentFunded(),
		AmountRemaining: c.AmountRemaining(),
		DaysLeft:        c.DaysLeft(now),
		IsActive:        c.IsActive(now),
		FollowerCount:   len(c.Followers),
		Following:       c.Followers.Has(viewerID),
		Status:          c.Status,
		EndDate:         c.EndDate,
		Updates:         c.Updates,
		CreatedAt:       c.CreatedAt,
	}
}

// loadCampaign fetches the campaign by URL param and writes the error
// response itself.
func (h *Handler) loadCampaign(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Campaign, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid campaign id")
		return models.Campaign{}, false
	}

	c, err := h.Campaigns.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "campaign not found")
			return models.Campaign{}, false
		}
		h.Log.Error("campaigns: load campaign", zap.Error(err), zap.String("campaign_id", id.Hex()))
		respond.ServerError(w)
		return models.Campaign{}, false
	}
	return c, true
}

// ServeCampaign handles GET /campaigns/{id}. Drafts only show to their
// organizer.
func (h *Handler) ServeCampaign(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, ok := h.loadCampaign(ctx, w, r)
	if !ok {
		return
	}

	viewerID := sysauth.ViewerID(r)
	if c.Status == models.CampaignDraft && c.OrganizerID != viewerID {
		respond.NotFound(w, "campaign not found")
		return
	}

	respond.JSON(w, http.StatusOK, campaignViewOf(c, viewerID, time.Now()))
}

// ServeList handles GET /campaigns with optional category and status
// filters.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	page := paging.Parse(r)
	filter := campaignListFilter(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	listed, total, err := h.Campaigns.List(ctx, filter, page.Skip(), int64(page.Limit))
	if err != nil {
		h.Log.Error("campaigns: list", zap.Error(err))
		respond.ServerError(w)
		return
	}

	viewerID := sysauth.ViewerID(r)
	now := time.Now()
	views := make([]campaignView, 0, len(listed))
	for _, c := range listed {
		views = append(views, campaignViewOf(c, viewerID, now))
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"campaigns": views,
		"total":     total,
		"page":      page.Page,
		"pages":     page.Pages(total),
		"perPage":   page.Limit,
	})
}

func campaignListFilter(r *http.Request) campaignstore.ListFilter {
	f := campaignstore.ListFilter{
		Category: normalize.Enum(r.URL.Query().Get("category")),
		Status:   normalize.Enum(r.URL.Query().Get("status")),
	}
	if f.Category != "" && !models.IsValidCampaignCategory(f.Category) {
		f.Category = ""
	}
	switch f.Status {
	case models.CampaignActive, models.CampaignCompleted, models.CampaignPaused:
	default:
		f.Status = ""
	}
	return f
}
