// internal/app/features/auth/me.go
package auth

import (
	"context"
	"net/http"

	sysauth "github.com/gatherhq/gatherhub/internal/app/system/auth"
	"github.com/gatherhq/gatherhub/internal/app/system/respond"
	"github.com/gatherhq/gatherhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ServeMe handles GET /auth/me and returns the caller's own profile,
// email included.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		h.Log.Error("me: load user", zap.Error(err), zap.String("user_id", userID.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, user.PublicProfile(true))
}
