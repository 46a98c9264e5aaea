// internal/app/features/users/routes.go
package users

import (
	"github.com/go-chi/chi/v5"
	"github.com/threadhive/threadhive/internal/app/system/auth"
)

// Routes mounts all User routes under the base path
// (typically "/users" from bootstrap).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Public reads.
	r.Get("/{id}", h.ServeProfile)
	r.Get("/{id}/threads", h.ServeThreads)

	// Signed-in routes.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Post("/", h.HandleUpsert)
		pr.Get("/", h.ServeList)
		pr.Get("/activity", h.ServeActivity)
		pr.Get("/suggested", h.ServeSuggested)
	})

	return r
}
