// internal/app/features/groups/handler.go
package groups

import (
	"github.com/gatherhq/gatherhub/internal/app/store/groups"
	"github.com/gatherhq/gatherhub/internal/app/store/posts"
	"github.com/gatherhq/gatherhub/internal/app/store/users"
	"github.com/gatherhq/gatherhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the groups feature.
// It holds the group store plus the post and user stores needed for
// the group feed and member listings.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Tokens *auth.TokenManager
	Groups *groupstore.Store
	Posts  *poststore.Store
	Users  *userstore.Store
}

// NewHandler constructs a groups Handler. It is typically called from
// the bootstrap BuildHandler function.
func NewHandler(db *mongo.Database, logger *zap.Logger, tokens *auth.TokenManager) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		Tokens: tokens,
		Groups: groupstore.New(db),
		Posts:  poststore.New(db),
		Users:  userstore.New(db),
	}
}
