// internal/app/features/groups/membership.go
package groups

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gatherhq/gatherhub/internal/app/store/groups"
	sysauth "github.com/gatherhq/gatherhub/internal/app/system/auth"
	"github.com/gatherhq/gatherhub/internal/app/system/respond"
	"github.com/gatherhq/gatherhub/internal/app/system/timeouts"
	"github.com/gatherhq/gatherhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleJoin handles POST /groups/{id}/join.
//
//   - public: immediate membership
//   - private: queues a join request for moderator review
//   - secret: unreachable, the group 404s for non-members
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, _, visible := h.loadVisible(ctx, w, r)
	if !visible {
		return
	}
	if g.IsMember(userID) {
		respond.BadRequest(w, "already a member")
		return
	}

	switch g.Privacy {
	case models.GroupPublic:
		if err := h.Groups.AddMember(ctx, g.ID, userID, models.RoleMember); err != nil {
			if errors.Is(err, groupstore.ErrAlreadyMember) {
				respond.BadRequest(w, "already a member")
				return
			}
			h.Log.Error("groups: join", zap.Error(err), zap.String("group_id", g.ID.Hex()))
			respond.ServerError(w)
			return
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "joined"})

	case models.GroupPrivate:
		if err := h.Groups.QueueJoinRequest(ctx, g.ID, userID); err != nil {
			if errors.Is(err, groupstore.ErrAlreadyMember) {
				respond.BadRequest(w, "join request already pending")
				return
			}
			h.Log.Error("groups: queue join request", zap.Error(err), zap.String("group_id", g.ID.Hex()))
			respond.ServerError(w)
			return
		}
		respond.JSON(w, http.StatusAccepted, map[string]string{"status": "pending"})

	default:
		// Secret groups are invite only.
		respond.Forbidden(w, "this group is invite only")
	}
}

// HandleApproveRequest handles POST /groups/{id}/requests/{userID}/approve.
func (h *Handler) HandleApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.handleRequestDecision(w, r, true)
}

// HandleRejectRequest handles POST /groups/{id}/requests/{userID}/reject.
func (h *Handler) HandleRejectRequest(w http.ResponseWriter, r *http.Request) {
	h.handleRequestDecision(w, r, false)
}

func (h *Handler) handleRequestDecision(w http.ResponseWriter, r *http.Request, approve bool) {
	actorID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}
	subjectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		respond.BadRequest(w, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, _, visible := h.loadVisible(ctx, w, r)
	if !visible {
		return
	}
	if !g.CanModerate(actorID) {
		respond.Forbidden(w, "only a moderator may review join requests")
		return
	}
	if !g.HasPendingRequest(subjectID) {
		respond.NotFound(w, "no pending request for this user")
		return
	}

	if approve {
		err = h.Groups.AddMember(ctx, g.ID, subjectID, models.RoleMember)
	} else {
		err = h.Groups.RejectRequest(ctx, g.ID, subjectID)
	}
	if err != nil && !errors.Is(err, groupstore.ErrAlreadyMember) {
		h.Log.Error("groups: request decision", zap.Error(err),
			zap.String("group_id", g.ID.Hex()), zap.String("subject_id", subjectID.Hex()),
			zap.Bool("approve", approve))
		respond.ServerError(w)
		return
	}

	status := "rejected"
	if approve {
		status = "approved"
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": status})
}

// HandleInvite handles POST /groups/{id}/members: a moderator adds a
// user directly. This is the only way into a secret group.
func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}

	var in struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	subjectID, err := primitive.ObjectIDFromHex(in.UserID)
	if err != nil {
		respond.BadRequest(w, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, _, visible := h.loadVisible(ctx, w, r)
	if !visible {
		return
	}
	if !g.CanModerate(actorID) {
		respond.Forbidden(w, "only a moderator may add members")
		return
	}

	subject, err := h.Users.GetByID(ctx, subjectID)
	if err != nil || !subject.IsActive() {
		respond.NotFound(w, "user not found")
		return
	}

	if err := h.Groups.AddMember(ctx, g.ID, subjectID, models.RoleMember); err != nil {
		if errors.Is(err, groupstore.ErrAlreadyMember) {
			respond.BadRequest(w, "already a member")
			return
		}
		h.Log.Error("groups: invite", zap.Error(err),
			zap.String("group_id", g.ID.Hex()), zap.String("subject_id", subjectID.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"status": "added"})
}

// HandleLeave handles POST /groups/{id}/leave. The creator must
// transfer ownership first.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, _, visible := h.loadVisible(ctx, w, r)
	if !visible {
		return
	}
	if !g.IsMember(userID) {
		respond.BadRequest(w, "not a member of this group")
		return
	}

	if err := h.Groups.RemoveMember(ctx, g.ID, userID); err != nil {
		if errors.Is(err, groupstore.ErrCreatorCannotLeave) {
			respond.BadRequest(w, "transfer ownership before leaving the group")
			return
		}
		h.Log.Error("groups: leave", zap.Error(err), zap.String("group_id", g.ID.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// HandleRemoveMember handles DELETE /groups/{id}/members/{userID}.
// Moderators may remove plain members; only admins may remove
// moderators; the creator cannot be removed.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}
	subjectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		respond.BadRequest(w, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, _, visible := h.loadVisible(ctx, w, r)
	if !visible {
		return
	}
	if !g.CanModerate(actorID) {
		respond.Forbidden(w, "only a moderator may remove members")
		return
	}
	subjectRole := g.MemberRole(subjectID)
	if subjectRole == "" {
		respond.NotFound(w, "user is not a member")
		return
	}
	if models.RoleAtLeast(subjectRole, models.RoleModerator) && !g.IsAdmin(actorID) {
		respond.Forbidden(w, "only an admin may remove a moderator")
		return
	}

	if err := h.Groups.RemoveMember(ctx, g.ID, subjectID); err != nil {
		if errors.Is(err, groupstore.ErrCreatorCannotLeave) {
			respond.BadRequest(w, "the group creator cannot be removed")
			return
		}
		h.Log.Error("groups: remove member", zap.Error(err),
			zap.String("group_id", g.ID.Hex()), zap.String("subject_id", subjectID.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// HandleSetRole handles PUT /groups/{id}/members/{userID}/role.
// Admin only; the creator always stays admin.
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}
	subjectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		respond.BadRequest(w, "invalid user id")
		return
	}

	var in struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	switch in.Role {
	case models.RoleMember, models.RoleModerator, models.RoleAdmin:
	default:
		respond.BadRequest(w, "invalid role")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, _, visible := h.loadVisible(ctx, w, r)
	if !visible {
		return
	}
	if !g.IsAdmin(actorID) {
		respond.Forbidden(w, "only an admin may change roles")
		return
	}
	if subjectID == g.CreatorID {
		respond.BadRequest(w, "the creator's role cannot be changed")
		return
	}
	if g.MemberRole(subjectID) == "" {
		respond.NotFound(w, "user is not a member")
		return
	}

	if err := h.Groups.SetMemberRole(ctx, g.ID, subjectID, in.Role); err != nil {
		h.Log.Error("groups: set role", zap.Error(err),
			zap.String("group_id", g.ID.Hex()), zap.String("subject_id", subjectID.Hex()),
			zap.String("role", in.Role))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"status": "updated", "role": in.Role})
}

// HandleTransferOwnership handles POST /groups/{id}/transfer. Creator
// only; the new owner must already be a member and is promoted to
// admin.
func (h *Handler) HandleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}

	var in struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	newOwnerID, err := primitive.ObjectIDFromHex(in.UserID)
	if err != nil {
		respond.BadRequest(w, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, _, visible := h.loadVisible(ctx, w, r)
	if !visible {
		return
	}
	if g.CreatorID != actorID {
		respond.Forbidden(w, "only the creator may transfer ownership")
		return
	}
	if !g.IsMember(newOwnerID) {
		respond.BadRequest(w, "the new owner must be a member of the group")
		return
	}
	if newOwnerID == actorID {
		respond.BadRequest(w, "you already own this group")
		return
	}

	if err := h.Groups.TransferOwnership(ctx, g.ID, newOwnerID); err != nil {
		if errors.Is(err, groupstore.ErrNotMember) {
			respond.BadRequest(w, "the new owner must be a member of the group")
			return
		}
		h.Log.Error("groups: transfer ownership", zap.Error(err),
			zap.String("group_id", g.ID.Hex()), zap.String("new_owner_id", newOwnerID.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}
