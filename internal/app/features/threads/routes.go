// internal/app/features/threads/routes.go
package threads

import (
	"github.com/go-chi/chi/v5"
	"github.com/threadhive/threadhive/internal/app/system/auth"
)

// Routes mounts all Thread routes under the base path
// (typically "/threads" from bootstrap).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Public reads.
	r.Get("/", h.ServeFeed)
	r.Get("/{id}", h.ServeView)

	// Signed-in mutations.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Post("/", h.HandleCreate)
		pr.Post("/{id}/comments", h.HandleComment)
		pr.Post("/{id}/like", h.HandleLike)
		pr.Post("/{id}/repost", h.HandleRepost)
	})

	return r
}
