// internal/app/features/campaigns/handler.go
package campaigns

import (
	"github.com/gatherhq/gatherhub/internal/app/store/campaigns"
	"github.com/gatherhq/gatherhub/internal/app/store/users"
	"github.com/gatherhq/gatherhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the campaigns
// feature. The user store resolves donor names for the donation list.
type Handler struct {
	DB        *mongo.Database
	Log       *zap.Logger
	Tokens    *auth.TokenManager
	Campaigns *campaignstore.Store
	Users     *userstore.Store
}

// NewHandler constructs a campaigns Handler. It is typically called
// from the bootstrap BuildHandler function.
func NewHandler(db *mongo.Database, logger *zap.Logger, tokens *auth.TokenManager) *Handler {
	return &Handler{
		DB:        db,
		Log:       logger,
		Tokens:    tokens,
		Campaigns: campaignstore.New(db),
		Users:     userstore.New(db),
	}
}
