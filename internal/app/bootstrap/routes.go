// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	authfeature "github.com/gatherhq/gatherhub/internal/app/features/auth"
	campaignsfeature "github.com/gatherhq/gatherhub/internal/app/features/campaigns"
	groupsfeature "github.com/gatherhq/gatherhub/internal/app/features/groups"
	healthfeature "github.com/gatherhq/gatherhub/internal/app/features/health"
	paymentsfeature "github.com/gatherhq/gatherhub/internal/app/features/payments"
	postsfeature "github.com/gatherhq/gatherhub/internal/app/features/posts"
	usersfeature "github.com/gatherhq/gatherhub/internal/app/features/users"
	userstore "github.com/gatherhq/gatherhub/internal/app/store/users"
	"github.com/gatherhq/gatherhub/internal/app/system/auth"
	"github.com/gatherhq/gatherhub/internal/app/system/billing"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// GatherHub initializes the token manager and the billing client, then
// mounts feature routers for every API area: auth, users, posts,
// groups, campaigns, and payments.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	tokens, err := auth.NewTokenManager(appCfg.JWTSecret, appCfg.JWTIssuer,
		appCfg.AccessTokenTTL, appCfg.RefreshTokenTTL, logger)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}

	// Fresh user data is fetched on each authenticated request so
	// deactivations and tier changes take effect immediately.
	tokens.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	billingClient := billing.New(billing.Config{
		SecretKey:       appCfg.StripeSecretKey,
		WebhookSecret:   appCfg.StripeWebhookSecret,
		PremiumPriceID:  appCfg.StripePremiumPriceID,
		SuccessURL:      appCfg.BaseURL + "/billing/success",
		CancelURL:       appCfg.BaseURL + "/billing/canceled",
		PortalReturnURL: appCfg.BaseURL + "/settings",
	})

	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication and account lifecycle
	authHandler := authfeature.NewHandler(deps.MongoDatabase, logger, tokens)
	r.Mount("/auth", authfeature.Routes(authHandler))

	// Profiles and the social graph
	usersHandler := usersfeature.NewHandler(deps.MongoDatabase, logger, tokens)
	r.Mount("/users", usersfeature.Routes(usersHandler))

	// Posts, feeds, and engagement
	postsHandler := postsfeature.NewHandler(deps.MongoDatabase, logger, tokens)
	r.Mount("/posts", postsfeature.Routes(postsHandler))

	// Community groups
	groupsHandler := groupsfeature.NewHandler(deps.MongoDatabase, logger, tokens)
	r.Mount("/groups", groupsfeature.Routes(groupsHandler))

	// Crowdfunding campaigns
	campaignsHandler := campaignsfeature.NewHandler(deps.MongoDatabase, logger, tokens)
	r.Mount("/campaigns", campaignsfeature.Routes(campaignsHandler))

	// Subscriptions, donations, and the provider webhook
	paymentsHandler := paymentsfeature.NewHandler(deps.MongoDatabase, logger, tokens, billingClient)
	r.Mount("/payments", paymentsfeature.Routes(paymentsHandler))

	return r, nil
}
