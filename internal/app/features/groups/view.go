// internal/app/features/groups/view.go
package groups

import (
	"context"
	"errors"
	"net/http"
	"time"

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

// groupView is the wire shape for a group. The raw member and pending
// lists stay server side; the viewer gets counts and their own role.
type groupView struct {
	ID           primitive.ObjectID   `json:"id"`
	Name         string               `json:"name"`
	Description  string               `json:"description,omitempty"`
	Privacy      string               `json:"privacy"`
	CreatorID    primitive.ObjectID   `json:"creatorId"`
	MemberCount  int                  `json:"memberCount"`
	PendingCount int                  `json:"pendingCount,omitempty"`
	ViewerRole   string               `json:"viewerRole,omitempty"`
	Settings     models.GroupSettings `json:"settings"`
	CreatedAt    time.Time            `json:"createdAt"`
}

func groupViewOf(g models.Group, viewerID primitive.ObjectID) groupView {
	v := groupView{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Privacy:     g.Privacy,
		CreatorID:   g.CreatorID,
		MemberCount: len(g.Members),
		ViewerRole:  g.MemberRole(viewerID),
		Settings:    g.Settings,
		CreatedAt:   g.CreatedAt,
	}
	if g.CanModerate(viewerID) {
		v.PendingCount = len(g.PendingRequests)
	}
	return v
}

// loadVisible fetches the group and hides secret groups from
// non-members. It writes the error response itself.
func (h *Handler) loadVisible(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Group, primitive.ObjectID, bool) {
	viewerID := sysauth.ViewerID(r)
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid group id")
		return models.Group{}, viewerID, false
	}

	g, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "group not found")
			return models.Group{}, viewerID, false
		}
		h.Log.Error("groups: load group", zap.Error(err), zap.String("group_id", id.Hex()))
		respond.ServerError(w)
		return models.Group{}, viewerID, false
	}
	if !g.VisibleTo(viewerID) {
		// Secret groups 404 rather than 403 so their existence leaks
		// nothing.
		respond.NotFound(w, "group not found")
		return models.Group{}, viewerID, false
	}
	return g, viewerID, true
}

// ServeGroup handles GET /groups/{id}.
func (h *Handler) ServeGroup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, viewerID, ok := h.loadVisible(ctx, w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, groupViewOf(g, viewerID))
}

// ServeList handles GET /groups. Secret groups only appear for their
// own members.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	viewerID := sysauth.ViewerID(r)
	listed, total, err := h.Groups.List(ctx, viewerID, page.Skip(), int64(page.Limit))
	if err != nil {
		h.Log.Error("groups: list", zap.Error(err))
		respond.ServerError(w)
		return
	}

	views := make([]groupView, 0, len(listed))
	for _, g := range listed {
		views = append(views, groupViewOf(g, viewerID))
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"groups":  views,
		"total":   total,
		"page":    page.Page,
		"pages":   page.Pages(total),
		"perPage": page.Limit,
	})
}

type memberView struct {
	UserID    primitive.ObjectID `json:"userId"`
	Name      string             `json:"name"`
	AvatarURL string             `json:"avatarUrl,omitempty"`
	Role      string             `json:"role"`
	JoinedAt  time.Time          `json:"joinedAt"`
}

// ServeMembers handles GET /groups/{id}/members. Membership rosters of
// private and secret groups are members-only.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, viewerID, ok := h.loadVisible(ctx, w, r)
	if !ok {
		return
	}
	if g.Privacy != models.GroupPublic && !g.IsMember(viewerID) {
		respond.Forbidden(w, "you must be a member of this group")
		return
	}

	ids := make([]primitive.ObjectID, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.UserID)
	}
	listed, err := h.Users.ListByIDs(ctx, ids)
	if err != nil {
		h.Log.Error("groups: list members", zap.Error(err), zap.String("group_id", g.ID.Hex()))
		respond.ServerError(w)
		return
	}
	byID := make(map[primitive.ObjectID]models.User, len(listed))
	for _, u := range listed {
		byID[u.ID] = u
	}

	views := make([]memberView, 0, len(g.Members))
	for _, m := range g.Members {
		u, found := byID[m.UserID]
		if !found || !u.IsActive() {
			continue
		}
		views = append(views, memberView{
			UserID:    m.UserID,
			Name:      u.Name,
			AvatarURL: u.AvatarURL,
			Role:      m.Role,
			JoinedAt:  m.JoinedAt,
		})
	}

	respond.JSON(w, http.StatusOK, map[string]any{"members": views})
}

// ServePendingRequests handles GET /groups/{id}/requests. Moderators
// and admins only.
func (h *Handler) ServePendingRequests(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, viewerID, ok := h.loadVisible(ctx, w, r)
	if !ok {
		return
	}
	if !g.CanModerate(viewerID) {
		respond.Forbidden(w, "only a moderator may review join requests")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"requests": g.PendingRequests})
}
