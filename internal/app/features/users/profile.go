// internal/app/features/users/profile.go
package users

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	userstore "github.com/threadhive/threadhive/internal/app/store/users"
	"github.com/threadhive/threadhive/internal/app/system/auth"
	"github.com/threadhive/threadhive/internal/app/system/httpjson"
	"github.com/threadhive/threadhive/internal/app/system/inputval"
	"github.com/threadhive/threadhive/internal/app/system/timeouts"
	"github.com/threadhive/threadhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// HandleUpsert processes POST /users: create-or-update the current user's
// profile, keyed by the provider identity. A completed update marks the
// user onboarded.
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	externalUserID, _ := auth.CurrentUserID(r)

	var input upsertInput
	if err := httpjson.Decode(r, &input); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	input.Username = strings.TrimSpace(input.Username)
	input.Name = strings.TrimSpace(input.Name)
	if result := inputval.Validate(input); result.HasErrors() {
		httpjson.Error(w, http.StatusBadRequest, result.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.Upsert(ctx, userstore.UpsertParams{
		ExternalID: externalUserID,
		Username:   input.Username,
		Name:       input.Name,
		Bio:        input.Bio,
		Image:      input.Image,
	})
	if errors.Is(err, userstore.ErrDuplicateUsername) {
		httpjson.Error(w, http.StatusConflict, userstore.ErrDuplicateUsername.Error())
		return
	}
	if err != nil {
		h.Log.Error("upserting user failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "saving profile failed")
		return
	}

	httpjson.Write(w, http.StatusOK, toProfile(u, h.communityPublicIDs(ctx, u)))
}

// ServeProfile handles GET /users/{id}, where id is the provider user ID.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByExternalID(ctx, externalID)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "user not found")
		return
	}

	httpjson.Write(w, http.StatusOK, toProfile(u, h.communityPublicIDs(ctx, u)))
}

// communityPublicIDs maps the user's community references to public IDs.
// A lookup failure degrades to an empty list rather than failing the
// profile.
func (h *Handler) communityPublicIDs(ctx context.Context, u models.User) []string {
	ids := make([]string, 0, len(u.Communities))
	if len(u.Communities) == 0 {
		return ids
	}
	comms, err := h.Communities.Find(ctx, bson.M{"_id": bson.M{"$in": u.Communities}})
	if err != nil {
		h.Log.Warn("loading user communities failed",
			zap.String("user", u.ExternalID), zap.Error(err))
		return ids
	}
	for _, c := range comms {
		ids = append(ids, c.PublicID)
	}
	return ids
}
