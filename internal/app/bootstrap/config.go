// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/threadhive/threadhive/internal/app/system/webhookverify"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for ThreadHive.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, identity_api_url, etc.
//   - Environment variables: THREADHIVE_MONGO_URI, THREADHIVE_IDENTITY_API_URL, etc.
//   - Command-line flags: --mongo_uri, --identity_api_url, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "threadhive", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Session verification
	{Name: "session_jwt_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Shared secret for verifying provider-issued session JWTs (must be strong in production)"},

	// Identity provider API
	{Name: "identity_api_url", Default: "https://api.clerk.com", Desc: "Base URL of the identity provider REST API"},
	{Name: "identity_api_key", Default: "", Desc: "Secret key for the identity provider API"},

	// Webhook intake
	{Name: "webhook_signing_secret", Default: "", Desc: "Webhook signing secret (whsec_...); blank disables the webhook endpoint"},

	// Reconciliation retry policy
	{Name: "sync_retries", Default: 3, Desc: "Retries after the first identity-provider attempt"},
	{Name: "sync_retry_initial", Default: "500ms", Desc: "Delay before the first retry (e.g., 500ms, 1s)"},
	{Name: "sync_retry_multiplier", Default: 2, Desc: "Backoff growth factor between retries"},

	// Community listing cache
	{Name: "listing_cache_size", Default: 256, Desc: "Max cached community listing entries"},
	{Name: "listing_cache_ttl", Default: "30s", Desc: "Listing cache entry lifetime (e.g., 30s, 2m)"},

	// Handler timeouts (blank/zero keeps built-in defaults)
	{Name: "timeout_ping", Default: "", Desc: "Health check timeout override"},
	{Name: "timeout_short", Default: "", Desc: "Single-document read timeout override"},
	{Name: "timeout_medium", Default: "", Desc: "List query timeout override"},
	{Name: "timeout_long", Default: "", Desc: "Identity-provider operation timeout override"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, THREADHIVE_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "THREADHIVE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionJWTSecret: appValues.String("session_jwt_secret"),

		IdentityAPIURL: appValues.String("identity_api_url"),
		IdentityAPIKey: appValues.String("identity_api_key"),

		WebhookSigningSecret: appValues.String("webhook_signing_secret"),

		SyncRetries:         appValues.Int("sync_retries"),
		SyncRetryInitial:    appValues.Duration("sync_retry_initial", 500*time.Millisecond),
		SyncRetryMultiplier: appValues.Int("sync_retry_multiplier"),

		ListingCacheSize: appValues.Int("listing_cache_size"),
		ListingCacheTTL:  appValues.Duration("listing_cache_ttl", 30*time.Second),

		TimeoutPing:   appValues.Duration("timeout_ping", 0),
		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutLong:   appValues.Duration("timeout_long", 0),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// ThreadHive validates the MongoDB URI and the reconciliation knobs here
// so misconfiguration fails before anything connects.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.SyncRetries < 0 {
		return fmt.Errorf("sync_retries must be >= 0, got %d", appCfg.SyncRetries)
	}
	if appCfg.SyncRetryMultiplier < 1 {
		return fmt.Errorf("sync_retry_multiplier must be >= 1, got %d", appCfg.SyncRetryMultiplier)
	}
	if appCfg.ListingCacheSize < 1 {
		return fmt.Errorf("listing_cache_size must be >= 1, got %d", appCfg.ListingCacheSize)
	}

	// Catch a malformed signing secret at startup rather than on the first
	// delivery.
	if appCfg.WebhookSigningSecret != "" {
		if _, err := webhookverify.New(appCfg.WebhookSigningSecret); err != nil {
			return fmt.Errorf("webhook_signing_secret: %w", err)
		}
	}

	if appCfg.IdentityAPIKey == "" {
		logger.Warn("identity_api_key is not set; identity provider calls will be rejected")
	}

	return nil
}
