// internal/app/features/auth/register.go
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gatherhq/gatherhub/internal/app/store/users"
	"github.com/gatherhq/gatherhub/internal/app/system/inputval"
	"github.com/gatherhq/gatherhub/internal/app/system/normalize"
	"github.com/gatherhq/gatherhub/internal/app/system/respond"
	"github.com/gatherhq/gatherhub/internal/app/system/timeouts"
	"github.com/gatherhq/gatherhub/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type registerInput struct {
	Name     string `json:"name" validate:"required,min=2,max=80" label:"name"`
	Email    string `json:"email" validate:"required,email" label:"email"`
	Password string `json:"password" validate:"required,min=8,max=72" label:"password"`
}

type authResponse struct {
	User   models.Profile `json:"user"`
	Tokens tokenPayload   `json:"tokens"`
}

type tokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// HandleRegister handles POST /auth/register. Email addresses are
// case-folded before the uniqueness check so "A@b.com" and "a@b.com"
// collide.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	in.Name = normalize.Name(in.Name)
	in.Email = normalize.Email(in.Email)

	if res := inputval.Validate(in); res.HasErrors() {
		respond.ValidationErrors(w, res.Errors)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("register: hash password", zap.Error(err))
		respond.ServerError(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.Create(ctx, models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			respond.Error(w, http.StatusConflict, "email already registered")
			return
		}
		h.Log.Error("register: create user", zap.Error(err))
		respond.ServerError(w)
		return
	}

	pair, err := h.Tokens.IssuePair(user.ID.Hex())
	if err != nil {
		h.Log.Error("register: issue tokens", zap.Error(err), zap.String("user_id", user.ID.Hex()))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusCreated, authResponse{
		User:   user.PublicProfile(true),
		Tokens: tokenPayload{pair.AccessToken, pair.RefreshToken, pair.ExpiresIn},
	})
}
