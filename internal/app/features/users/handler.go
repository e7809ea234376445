// internal/app/features/users/handler.go
package users

import (
	"github.com/gatherhq/gatherhub/internal/app/store/users"
	"github.com/gatherhq/gatherhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the users feature.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Tokens *auth.TokenManager
	Users  *userstore.Store
}

// NewHandler constructs a users Handler. It is typically called from
// the bootstrap BuildHandler function.
func NewHandler(db *mongo.Database, logger *zap.Logger, tokens *auth.TokenManager) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		Tokens: tokens,
		Users:  userstore.New(db),
	}
}
