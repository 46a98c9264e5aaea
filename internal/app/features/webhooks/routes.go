// internal/app/features/webhooks/routes.go
package webhooks

import "github.com/go-chi/chi/v5"

// Routes mounts the webhook intake (typically under "/webhooks").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/identity", h.Serve)
	return r
}
