// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports, TLS, logging level and format, CORS, and request body limits.
// AppConfig is where everything specific to ThreadHive lives: the MongoDB
// connection, the identity-provider API credentials, webhook verification,
// and the reconciliation tuning knobs.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connections in the driver pool
	MongoMinPoolSize uint64 // Min connections kept warm in the pool

	// Session verification. The identity provider issues the session JWTs;
	// this service only verifies them with the shared secret.
	SessionJWTSecret string

	// Identity provider API configuration
	IdentityAPIURL string // Base URL of the provider's REST API
	IdentityAPIKey string // Secret key sent as a bearer token

	// Webhook intake. Blank disables the webhook endpoint.
	WebhookSigningSecret string // "whsec_..." signing secret for push events

	// Reconciliation retry policy for identity-provider calls
	SyncRetries         int           // retries after the first attempt
	SyncRetryInitial    time.Duration // delay before the first retry
	SyncRetryMultiplier int           // backoff growth factor

	// Community listing cache
	ListingCacheSize int           // max cached listing entries
	ListingCacheTTL  time.Duration // entry lifetime

	// Handler timeout overrides (zero keeps the built-in defaults)
	TimeoutPing   time.Duration
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
