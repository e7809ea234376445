// internal/app/features/payments/handler.go
package payments

import (
	"github.com/gatherhq/gatherhub/internal/app/store/campaigns"
	"github.com/gatherhq/gatherhub/internal/app/store/users"
	"github.com/gatherhq/gatherhub/internal/app/system/auth"
	"github.com/gatherhq/gatherhub/internal/app/system/billing"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the payments feature:
// premium subscriptions, donation payments, and the provider webhook.
type Handler struct {
	DB        *mongo.Database
	Log       *zap.Logger
	Tokens    *auth.TokenManager
	Billing   *billing.Client
	Users     *userstore.Store
	Campaigns *campaignstore.Store
}

// NewHandler constructs a payments Handler. It is typically called
// from the bootstrap BuildHandler function, where the billing client
// is already configured.
func NewHandler(db *mongo.Database, logger *zap.Logger, tokens *auth.TokenManager, bc *billing.Client) *Handler {
	return &Handler{
		DB:        db,
		Log:       logger,
		Tokens:    tokens,
		Billing:   bc,
		Users:     userstore.New(db),
		Campaigns: campaignstore.New(db),
	}
}
