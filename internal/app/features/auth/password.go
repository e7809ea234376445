// internal/app/features/auth/password.go
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gatherhq/gatherhub/internal/app/store/passwordresets"
	sysauth "github.com/gatherhq/gatherhub/internal/app/system/auth"
	"github.com/gatherhq/gatherhub/internal/app/system/inputval"
	"github.com/gatherhq/gatherhub/internal/app/system/normalize"
	"github.com/gatherhq/gatherhub/internal/app/system/respond"
	"github.com/gatherhq/gatherhub/internal/app/system/timeouts"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenTTL = time.Hour

// forgotResponseMsg is returned whether or not the email exists.
const forgotResponseMsg = "if the address is registered, a reset token has been issued"

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type forgotInput struct {
	Email string `json:"email"`
}

// HandleForgotPassword handles POST /auth/forgot-password. The reply
// is the same whether or not the email matches an account. Delivery of
// the token is out of band; the handler logs it for the operator.
func (h *Handler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in forgotInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	email := normalize.Email(in.Email)
	if email == "" {
		respond.BadRequest(w, "email is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			h.Log.Error("forgot-password: lookup user", zap.Error(err))
		}
		respond.JSON(w, http.StatusAccepted, map[string]string{"message": forgotResponseMsg})
		return
	}

	token := uuid.NewString()
	if _, err := h.Resets.Create(ctx, user.ID, hashResetToken(token), resetTokenTTL); err != nil {
		h.Log.Error("forgot-password: create reset", zap.Error(err), zap.String("user_id", user.ID.Hex()))
		respond.ServerError(w)
		return
	}

	h.Log.Info("forgot-password: reset token issued",
		zap.String("user_id", user.ID.Hex()),
		zap.String("reset_token", token))

	respond.JSON(w, http.StatusAccepted, map[string]string{"message": forgotResponseMsg})
}

type resetInput struct {
	Token       string `json:"token" validate:"required" label:"token"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72" label:"new password"`
}

// HandleResetPassword handles POST /auth/reset-password. Tokens are
// single use and expire after an hour.
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var in resetInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		respond.ValidationErrors(w, res.Errors)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pr, err := h.Resets.Redeem(ctx, hashResetToken(in.Token))
	if err != nil {
		if errors.Is(err, resetstore.ErrTokenInvalid) {
			respond.BadRequest(w, "invalid or expired reset token")
			return
		}
		h.Log.Error("reset-password: redeem token", zap.Error(err))
		respond.ServerError(w)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("reset-password: hash password", zap.Error(err))
		respond.ServerError(w)
		return
	}

	if err := h.Users.SetPassword(ctx, pr.UserID, string(hash)); err != nil {
		h.Log.Error("reset-password: set password", zap.Error(err), zap.String("user_id", pr.UserID.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

type changePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required" label:"current password"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72" label:"new password"`
}

// HandleChangePassword handles POST /auth/change-password for a
// signed-in user. The current password must verify before the new one
// is accepted.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}

	var in changePasswordInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		respond.ValidationErrors(w, res.Errors)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		h.Log.Error("change-password: load user", zap.Error(err), zap.String("user_id", userID.Hex()))
		respond.ServerError(w)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		respond.Unauthorized(w, "current password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("change-password: hash password", zap.Error(err))
		respond.ServerError(w)
		return
	}

	if err := h.Users.SetPassword(ctx, userID, string(hash)); err != nil {
		h.Log.Error("change-password: set password", zap.Error(err), zap.String("user_id", userID.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}
