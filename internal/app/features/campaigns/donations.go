// internal/app/features/campaigns/donations.go
package campaigns

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

// donationView is the public shape of a donation. Anonymous donations
// drop the donor's identity entirely.
type donationView struct {
	ID        primitive.ObjectID  `json:"id"`
	DonorID   *primitive.ObjectID `json:"donorId,omitempty"`
	DonorName string              `json:"donorName,omitempty"`
	Amount    int64               `json:"amount"`
	Message   string              `json:"message,omitempty"`
	Anonymous bool                `json:"anonymous"`
	CreatedAt time.Time           `json:"createdAt"`
}

// ServeDonations handles GET /campaigns/{id}/donations: completed
// donations, newest first, anonymized where the donor asked for it.
func (h *Handler) ServeDonations(w http.ResponseWriter, r *http.Request) {
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, ok := h.loadCampaign(ctx, w, r)
	if !ok {
		return
	}

	completed := make([]models.Donation, 0, len(c.Donations))
	for _, d := range c.Donations {
		if d.Status == models.DonationCompleted {
			completed = append(completed, d)
		}
	}
	// Embedded donations are stored in arrival order; newest first for
	// the wire.
	for i, j := 0, len(completed)-1; i < j; i, j = i+1, j-1 {
		completed[i], completed[j] = completed[j], completed[i]
	}

	total := len(completed)
	start := int(page.Skip())
	if start > total {
		start = total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}
	window := completed[start:end]

	// Resolve names for the non-anonymous slice of this page.
	ids := make([]primitive.ObjectID, 0, len(window))
	for _, d := range window {
		if !d.Anonymous {
			ids = append(ids, d.DonorID)
		}
	}
	names := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) > 0 {
		donors, err := h.Users.ListByIDs(ctx, ids)
		if err != nil {
			h.Log.Error("campaigns: resolve donor names", zap.Error(err), zap.String("campaign_id", c.ID.Hex()))
			respond.ServerError(w)
			return
		}
		for _, u := range donors {
			names[u.ID] = u.Name
		}
	}

	views := make([]donationView, 0, len(window))
	for _, d := range window {
		v := donationView{
			ID:        d.ID,
			Amount:    d.Amount,
			Message:   d.Message,
			Anonymous: d.Anonymous,
			CreatedAt: d.CreatedAt,
		}
		if !d.Anonymous {
			donorID := d.DonorID
			v.DonorID = &donorID
			v.DonorName = names[donorID]
		}
		views = append(views, v)
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"donations": views,
		"total":     total,
		"page":      page.Page,
		"pages":     page.Pages(int64(total)),
		"perPage":   page.Limit,
	})
}
