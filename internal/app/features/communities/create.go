// internal/app/features/communities/create.go
package communities

import (
	"context"
	"errors"
	"net/http"
	"strings"

	communitystore "github.com/threadhive/threadhive/internal/app/store/communities"
	"github.com/threadhive/threadhive/internal/app/system/auth"
	"github.com/threadhive/threadhive/internal/app/system/httpjson"
	"github.com/threadhive/threadhive/internal/app/system/inputval"
	"github.com/threadhive/threadhive/internal/app/system/listingcache"
	"github.com/threadhive/threadhive/internal/app/system/slugify"
	"github.com/threadhive/threadhive/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleCreate processes POST /communities.
//
// Creation is local-first: the community is persisted before any provider
// call, and a failed external group creation leaves the local record
// standing (logged, not rolled back).
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	externalUserID, _ := auth.CurrentUserID(r)

	var input createInput
	if err := httpjson.Decode(r, &input); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Username = strings.TrimSpace(input.Username)
	if result := inputval.Validate(input); result.HasErrors() {
		httpjson.Error(w, http.StatusBadRequest, result.First())
		return
	}

	username := input.Username
	if username == "" {
		username = slugify.Slug(input.Name)
	}
	if username == "" {
		httpjson.Error(w, http.StatusBadRequest, "Community name must contain letters or digits.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	creator, err := h.Users.GetByExternalID(ctx, externalUserID)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "user not found")
		return
	}

	comm, err := h.Communities.Create(ctx, communitystore.CreateParams{
		Name:      input.Name,
		Username:  username,
		Image:     input.Image,
		Bio:       input.Bio,
		Private:   input.Private,
		CreatedBy: creator.ID,
	})
	if errors.Is(err, communitystore.ErrDuplicateUsername) {
		httpjson.Error(w, http.StatusConflict, communitystore.ErrDuplicateUsername.Error())
		return
	}
	if err != nil {
		h.Log.Error("creating community failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "creating community failed")
		return
	}

	if err := h.Users.AddCommunity(ctx, creator.ID, comm.ID); err != nil {
		h.Log.Warn("adding creator back-reference failed",
			zap.String("community", comm.ID.Hex()), zap.Error(err))
	}
	h.Cache.Invalidate(listingcache.ListingKey)

	// Best-effort external group creation; the local community stands
	// either way.
	if input.CreateExternal {
		if _, err := h.Identity.CreateOrganization(ctx, comm.Name, comm.Username, externalUserID); err != nil {
			h.Log.Warn("external group creation failed",
				zap.String("community", comm.PublicID), zap.Error(err))
		}
	}

	httpjson.Write(w, http.StatusCreated, toListItem(comm, creator.ID, true))
}
