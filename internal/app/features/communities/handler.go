// internal/app/features/communities/handler.go
package communities

import (
	communitystore "github.com/threadhive/threadhive/internal/app/store/communities"
	threadstore "github.com/threadhive/threadhive/internal/app/store/threads"
	userstore "github.com/threadhive/threadhive/internal/app/store/users"
	"github.com/threadhive/threadhive/internal/app/system/identity"
	"github.com/threadhive/threadhive/internal/app/system/listingcache"
	"github.com/threadhive/threadhive/internal/app/system/membership"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for Communities.
type Handler struct {
	Users       *userstore.Store
	Communities *communitystore.Store
	Threads     *threadstore.Store
	Membership  *membership.Service
	Identity    identity.Client
	Cache       *listingcache.Cache
	Log         *zap.Logger
}

func NewHandler(users *userstore.Store, communities *communitystore.Store, threads *threadstore.Store, ms *membership.Service, provider identity.Client, cache *listingcache.Cache, logger *zap.Logger) *Handler {
	return &Handler{
		Users:       users,
		Communities: communities,
		Threads:     threads,
		Membership:  ms,
		Identity:    provider,
		Cache:       cache,
		Log:         logger,
	}
}
