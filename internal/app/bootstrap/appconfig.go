// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//   - Database connection timeouts
//
// AppConfig is where everything specific to GatherHub lives: database
// connection strings, token signing settings, and billing credentials.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Token configuration. The signing secret must be strong in
	// production; access tokens are short-lived and refresh tokens
	// long-lived.
	JWTSecret       string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Billing (Stripe) configuration
	StripeSecretKey      string // sk_... API key
	StripeWebhookSecret  string // whsec_... endpoint signing secret
	StripePremiumPriceID string // recurring price for the premium tier

	// Base URL for the frontend; checkout and portal redirects are
	// derived from it.
	BaseURL string
}
