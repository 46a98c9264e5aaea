// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	communitiesfeature "github.com/threadhive/threadhive/internal/app/features/communities"
	healthfeature "github.com/threadhive/threadhive/internal/app/features/health"
	searchfeature "github.com/threadhive/threadhive/internal/app/features/search"
	syncfeature "github.com/threadhive/threadhive/internal/app/features/sync"
	threadsfeature "github.com/threadhive/threadhive/internal/app/features/threads"
	usersfeature "github.com/threadhive/threadhive/internal/app/features/users"
	webhooksfeature "github.com/threadhive/threadhive/internal/app/features/webhooks"
	communitystore "github.com/threadhive/threadhive/internal/app/store/communities"
	threadstore "github.com/threadhive/threadhive/internal/app/store/threads"
	userstore "github.com/threadhive/threadhive/internal/app/store/users"
	"github.com/threadhive/threadhive/internal/app/system/auth"
	"github.com/threadhive/threadhive/internal/app/system/identity"
	"github.com/threadhive/threadhive/internal/app/system/listingcache"
	"github.com/threadhive/threadhive/internal/app/system/membership"
	"github.com/threadhive/threadhive/internal/app/system/orgsync"
	"github.com/threadhive/threadhive/internal/app/system/retry"
	"github.com/threadhive/threadhive/internal/app/system/webhookverify"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. ThreadHive builds the stores and
// services here, applies the session middleware globally, and mounts a
// feature router per application area.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.ThreadHiveMongoDatabase

	users := userstore.New(db)
	communities := communitystore.New(db)
	threads := threadstore.New(db)

	cache := listingcache.New(appCfg.ListingCacheSize, appCfg.ListingCacheTTL)

	provider := identity.NewHTTPClient(appCfg.IdentityAPIURL, appCfg.IdentityAPIKey)
	policy := retry.Policy{
		Retries:    appCfg.SyncRetries,
		Initial:    appCfg.SyncRetryInitial,
		Multiplier: appCfg.SyncRetryMultiplier,
	}
	engine := orgsync.New(users, communities, provider, policy, cache, logger)
	ms := membership.New(deps.ThreadHiveMongoClient, users, communities, cache, logger)

	verifier := auth.NewVerifier(appCfg.SessionJWTSecret, logger)

	r := chi.NewRouter()

	// Global auth middleware: puts the provider user ID into context when a
	// valid session token is present. Handlers read it via auth.CurrentUserID.
	r.Use(verifier.LoadUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.ThreadHiveMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Communities: listing, detail, create, join/leave
	communitiesHandler := communitiesfeature.NewHandler(users, communities, threads, ms, provider, cache, logger)
	r.Mount("/communities", communitiesfeature.Routes(communitiesHandler))

	// Threads: feed, posting, comments, likes, reposts
	threadsHandler := threadsfeature.NewHandler(users, communities, threads, logger)
	r.Mount("/threads", threadsfeature.Routes(threadsHandler))

	// Users: onboarding, profiles, activity
	usersHandler := usersfeature.NewHandler(users, communities, threads, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler))

	// Reconciliation against the identity provider
	syncHandler := syncfeature.NewHandler(engine, logger)
	r.Mount("/sync", syncfeature.Routes(syncHandler))

	// Combined search
	searchHandler := searchfeature.NewHandler(users, communities, threads, logger)
	r.Mount("/search", searchfeature.Routes(searchHandler))

	// Webhook intake is only mounted when a signing secret is configured;
	// unsigned deliveries are never accepted.
	if appCfg.WebhookSigningSecret != "" {
		wv, err := webhookverify.New(appCfg.WebhookSigningSecret)
		if err != nil {
			logger.Error("webhook verifier init failed", zap.Error(err))
			return nil, err
		}
		webhooksHandler := &webhooksfeature.Handler{
			Verifier:    wv,
			Engine:      engine,
			Membership:  ms,
			Users:       users,
			Communities: communities,
			Cache:       cache,
			Log:         logger,
		}
		r.Mount("/webhooks", webhooksfeature.Routes(webhooksHandler))
	} else {
		logger.Warn("webhook_signing_secret not set; webhook endpoint disabled")
	}

	return r, nil
}
