// internal/app/features/users/handler.go
package users

import (
	communitystore "github.com/threadhive/threadhive/internal/app/store/communities"
	threadstore "github.com/threadhive/threadhive/internal/app/store/threads"
	userstore "github.com/threadhive/threadhive/internal/app/store/users"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for Users.
type Handler struct {
	Users       *userstore.Store
	Communities *communitystore.Store
	Threads     *threadstore.Store
	Log         *zap.Logger
}

func NewHandler(users *userstore.Store, communities *communitystore.Store, threads *threadstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Users:       users,
		Communities: communities,
		Threads:     threads,
		Log:         logger,
	}
}
