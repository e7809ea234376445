// internal/app/features/auth/handler.go
package auth

import (
	"github.com/gatherhq/gatherhub/internal/app/store/passwordresets"
	"github.com/gatherhq/gatherhub/internal/app/store/users"
	"github.com/gatherhq/gatherhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the auth feature.
// It holds the stores and the token manager so the individual
// handlers (register, login, refresh, password flows) share the
// same core dependencies.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Tokens *auth.TokenManager
	Users  *userstore.Store
	Resets *resetstore.Store
}

// NewHandler constructs an auth Handler. It is typically called from
// the bootstrap BuildHandler function, where the application's DB,
// logger, and token manager are already initialized.
func NewHandler(db *mongo.Database, logger *zap.Logger, tokens *auth.TokenManager) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		Tokens: tokens,
		Users:  userstore.New(db),
		Resets: resetstore.New(db),
	}
}
