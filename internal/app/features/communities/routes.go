// internal/app/features/communities/routes.go
package communities

import (
	"github.com/go-chi/chi/v5"
	"github.com/threadhive/threadhive/internal/app/system/auth"
)

// Routes mounts all Community routes under the base path
// (typically "/communities" from bootstrap).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Public reads.
	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeView)
	r.Get("/{id}/posts", h.ServePosts)

	// Signed-in mutations and personalized reads.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/suggested", h.ServeSuggested)
		pr.Post("/", h.HandleCreate)
		pr.Post("/{id}/join", h.HandleJoin)
		pr.Post("/{id}/leave", h.HandleLeave)
	})

	return r
}
