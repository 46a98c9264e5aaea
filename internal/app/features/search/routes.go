// internal/app/features/search/routes.go
package search

import "github.com/go-chi/chi/v5"

// Routes mounts the search endpoint (typically under "/search").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	return r
}
