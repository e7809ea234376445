// internal/app/features/auth/login.go
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gatherhq/gatherhub/internal/app/system/normalize"
	"github.com/gatherhq/gatherhub/internal/app/system/respond"
	"github.com/gatherhq/gatherhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// loginFailedMsg is deliberately identical for an unknown email and a
// wrong password so the endpoint cannot be used to probe which
// addresses have accounts.
const loginFailedMsg = "invalid email or password"

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	in.Email = normalize.Email(in.Email)
	if in.Email == "" || in.Password == "" {
		respond.Unauthorized(w, loginFailedMsg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Burn a comparison so timing does not reveal whether the
			// email exists.
			_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"), []byte(in.Password))
			respond.Unauthorized(w, loginFailedMsg)
			return
		}
		h.Log.Error("login: lookup user", zap.Error(err))
		respond.ServerError(w)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		respond.Unauthorized(w, loginFailedMsg)
		return
	}

	if !user.IsActive() {
		respond.Forbidden(w, "account is deactivated")
		return
	}

	pair, err := h.Tokens.IssuePair(user.ID.Hex())
	if err != nil {
		h.Log.Error("login: issue tokens", zap.Error(err), zap.String("user_id", user.ID.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, authResponse{
		User:   user.PublicProfile(true),
		Tokens: tokenPayload{pair.AccessToken, pair.RefreshToken, pair.ExpiresIn},
	})
}
