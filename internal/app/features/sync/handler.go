// internal/app/features/sync/handler.go
package sync

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/threadhive/threadhive/internal/app/system/auth"
	"github.com/threadhive/threadhive/internal/app/system/httpjson"
	"github.com/threadhive/threadhive/internal/app/system/orgsync"
	"github.com/threadhive/threadhive/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler exposes the reconciliation engine over HTTP.
type Handler struct {
	Engine *orgsync.Engine
	Log    *zap.Logger
}

func NewHandler(engine *orgsync.Engine, logger *zap.Logger) *Handler {
	return &Handler{Engine: engine, Log: logger}
}

// response is the wire shape of a sync outcome: a success flag, an optional
// error/message pair, and the count of communities affected.
type response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Synced  int    `json:"synced"`

	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Removed int      `json:"removed"`
	Failed  []string `json:"failed_org_ids,omitempty"`
}

func toResponse(res orgsync.Result) response {
	return response{
		Success: res.Success,
		Error:   res.Error,
		Message: res.Message,
		Synced:  res.Created + res.Updated + res.Removed,
		Created: res.Created,
		Updated: res.Updated,
		Removed: res.Removed,
		Failed:  res.FailedOrgIDs,
	}
}

// HandleSyncAll runs a full sync (reconcile + cleanup) for the current
// user. The pass runs synchronously inside this request; retry backoff can
// hold it for a few seconds when the provider is flaky.
func (h *Handler) HandleSyncAll(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.CurrentUserID(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res := h.Engine.FullSync(ctx, userID)
	httpjson.Write(w, statusFor(res), toResponse(res))
}

// HandleSyncOne reconciles a single organization for the current user.
func (h *Handler) HandleSyncOne(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.CurrentUserID(r)
	orgID := chi.URLParam(r, "orgID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res := h.Engine.SyncOne(ctx, userID, orgID)
	httpjson.Write(w, statusFor(res), toResponse(res))
}

func statusFor(res orgsync.Result) int {
	if res.Success {
		return http.StatusOK
	}
	if res.Error == orgsync.ErrUserNotFound.Error() {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}
