// internal/app/features/posts/handler.go
package posts

import (
	"github.com/gatherhq/gatherhub/internal/app/store/groups"
	"github.com/gatherhq/gatherhub/internal/app/store/posts"
	"github.com/gatherhq/gatherhub/internal/app/store/users"
	"github.com/gatherhq/gatherhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the posts feature.
// Group membership checks need the group store, and feed assembly
// needs the user store for follow relationships, so all three stores
// live here.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Tokens *auth.TokenManager
	Posts  *poststore.Store
	Users  *userstore.Store
	Groups *groupstore.Store
}

// NewHandler constructs a posts Handler. It is typically called from
// the bootstrap BuildHandler function.
func NewHandler(db *mongo.Database, logger *zap.Logger, tokens *auth.TokenManager) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		Tokens: tokens,
		Posts:  poststore.New(db),
		Users:  userstore.New(db),
		Groups: groupstore.New(db),
	}
}
