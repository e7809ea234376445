// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// devJWTSecret is the development default; ValidateConfig refuses it
// outside dev.
const devJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for GatherHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: GATHERHUB_MONGO_URI, GATHERHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "gatherhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Token signing
	{Name: "jwt_secret", Default: devJWTSecret, Desc: "JWT signing secret (must be strong in production)"},
	{Name: "jwt_issuer", Default: "gatherhub", Desc: "JWT issuer claim"},
	{Name: "access_token_ttl", Default: "15m", Desc: "Access token lifetime (e.g., 15m, 1h)"},
	{Name: "refresh_token_ttl", Default: "720h", Desc: "Refresh token lifetime (e.g., 720h for 30 days)"},

	// Billing (Stripe)
	{Name: "stripe_secret_key", Default: "", Desc: "Stripe secret API key (sk_...)"},
	{Name: "stripe_webhook_secret", Default: "", Desc: "Stripe webhook signing secret (whsec_...)"},
	{Name: "stripe_premium_price_id", Default: "", Desc: "Stripe price ID for the premium subscription"},

	// Base URL for checkout/portal redirects
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Frontend base URL for billing redirects"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific
// to this app and can be extended as the app grows.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, GATHERHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "GATHERHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret:       appValues.String("jwt_secret"),
		JWTIssuer:       appValues.String("jwt_issuer"),
		AccessTokenTTL:  appValues.Duration("access_token_ttl", 15*time.Minute),
		RefreshTokenTTL: appValues.Duration("refresh_token_ttl", 30*24*time.Hour),

		StripeSecretKey:      appValues.String("stripe_secret_key"),
		StripeWebhookSecret:  appValues.String("stripe_webhook_secret"),
		StripePremiumPriceID: appValues.String("stripe_premium_price_id"),

		BaseURL: appValues.String("base_url"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// This is the right place to enforce required fields or invariants that
// involve both the core and app configs.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if len(appCfg.JWTSecret) < 32 {
		return fmt.Errorf("jwt_secret must be at least 32 bytes")
	}
	if coreCfg.Env == "prod" && appCfg.JWTSecret == devJWTSecret {
		return fmt.Errorf("jwt_secret must be changed from the development default in production")
	}

	if appCfg.StripeSecretKey == "" {
		// Billing endpoints will fail without credentials; the rest of
		// the API still works, so warn rather than abort.
		logger.Warn("stripe_secret_key is not set; billing endpoints will be unavailable")
	}

	return nil
}
