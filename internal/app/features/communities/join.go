// internal/app/features/communities/join.go
package communities

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/threadhive/threadhive/internal/app/system/auth"
	"github.com/threadhive/threadhive/internal/app/system/communityref"
	"github.com/threadhive/threadhive/internal/app/system/httpjson"
	"github.com/threadhive/threadhive/internal/app/system/membership"
	"github.com/threadhive/threadhive/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleJoin processes POST /communities/{id}/join.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	h.mutateMembership(w, r, h.Membership.Join)
}

// HandleLeave processes POST /communities/{id}/leave.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	h.mutateMembership(w, r, h.Membership.Leave)
}

func (h *Handler) mutateMembership(w http.ResponseWriter, r *http.Request, op func(context.Context, communityref.Ref, string) (membership.Result, error)) {
	externalUserID, _ := auth.CurrentUserID(r)
	ref := communityref.Parse(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := op(ctx, ref, externalUserID)
	switch {
	case errors.Is(err, membership.ErrUserNotFound):
		httpjson.Error(w, http.StatusNotFound, "user not found")
		return
	case errors.Is(err, membership.ErrCommunityNotFound):
		httpjson.Error(w, http.StatusNotFound, "community not found")
		return
	case errors.Is(err, membership.ErrCreatorCannotLeave):
		httpjson.Error(w, http.StatusForbidden, membership.ErrCreatorCannotLeave.Error())
		return
	case err != nil:
		h.Log.Error("membership mutation failed",
			zap.String("ref", ref.String()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "membership update failed")
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]any{
		"success":      res.Success,
		"changed":      res.Changed,
		"message":      res.Message,
		"member_count": len(res.Community.Members),
	})
}
