// internal/app/features/sync/routes.go
package sync

import (
	"github.com/go-chi/chi/v5"
	"github.com/threadhive/threadhive/internal/app/system/auth"
)

// Routes mounts the sync endpoints (typically under "/sync").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Post("/organizations", h.HandleSyncAll)
		pr.Post("/organizations/{orgID}", h.HandleSyncOne)
	})
	return r
}
