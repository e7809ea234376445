// internal/app/features/auth/refresh.go
package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gatherhq/gatherhub/internal/app/system/respond"
	"github.com/gatherhq/gatherhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type refreshInput struct {
	RefreshToken string `json:"refresh_token"`
}

// HandleRefresh handles POST /auth/refresh. A valid refresh token
// yields a brand-new access/refresh pair; access tokens are never
// accepted here.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var in refreshInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.RefreshToken == "" {
		respond.BadRequest(w, "refresh_token is required")
		return
	}

	claims, err := h.Tokens.VerifyRefresh(in.RefreshToken)
	if err != nil {
		respond.Unauthorized(w, "invalid or expired refresh token")
		return
	}

	userID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		respond.Unauthorized(w, "invalid or expired refresh token")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	// Deactivated accounts cannot mint new tokens.
	user, err := h.Users.GetByID(ctx, userID)
	if err != nil || !user.IsActive() {
		respond.Unauthorized(w, "invalid or expired refresh token")
		return
	}

	pair, err := h.Tokens.IssuePair(user.ID.Hex())
	if err != nil {
		h.Log.Error("refresh: issue tokens", zap.Error(err), zap.String("user_id", user.ID.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, tokenPayload{pair.AccessToken, pair.RefreshToken, pair.ExpiresIn})
}
