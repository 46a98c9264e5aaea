// internal/app/features/threads/create.go
package threads

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	communitystore "github.com/threadhive/threadhive/internal/app/store/communities"
	threadstore "github.com/threadhive/threadhive/internal/app/store/threads"
	"github.com/threadhive/threadhive/internal/app/system/auth"
	"github.com/threadhive/threadhive/internal/app/system/communityref"
	"github.com/threadhive/threadhive/internal/app/system/httpjson"
	"github.com/threadhive/threadhive/internal/app/system/inputval"
	"github.com/threadhive/threadhive/internal/app/system/timeouts"
	"github.com/threadhive/threadhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleCreate processes POST /threads: a new root thread, optionally
// inside a community.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	externalUserID, _ := auth.CurrentUserID(r)

	var input createInput
	if err := httpjson.Decode(r, &input); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	input.Text = strings.TrimSpace(input.Text)
	if result := inputval.Validate(input); result.HasErrors() {
		httpjson.Error(w, http.StatusBadRequest, result.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	author, err := h.Users.GetByExternalID(ctx, externalUserID)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "user not found")
		return
	}

	var communityID *primitive.ObjectID
	var comm models.Community
	if input.CommunityID != "" {
		comm, err = h.Communities.GetByRef(ctx, communityref.Parse(input.CommunityID))
		if errors.Is(err, communitystore.ErrNotFound) {
			httpjson.Error(w, http.StatusNotFound, "community not found")
			return
		}
		if err != nil {
			httpjson.Error(w, http.StatusInternalServerError, "loading community failed")
			return
		}
		if !comm.HasMember(author.ID) {
			httpjson.Error(w, http.StatusForbidden, "not a member of this community")
			return
		}
		communityID = &comm.ID
	}

	created, err := h.Threads.Create(ctx, threadstore.CreateParams{
		Text:      input.Text,
		Image:     input.Image,
		Author:    author.ID,
		Community: communityID,
	})
	if errors.Is(err, threadstore.ErrEmptyText) {
		httpjson.Error(w, http.StatusBadRequest, "Thread text is empty.")
		return
	}
	if err != nil {
		h.Log.Error("creating thread failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "creating thread failed")
		return
	}

	// Back-references; each is individually idempotent and repaired by
	// later passes if one write is lost.
	if err := h.Users.AddThread(ctx, author.ID, created.ID); err != nil {
		h.Log.Warn("adding author thread reference failed", zap.Error(err))
	}
	if communityID != nil {
		if err := h.Communities.AddThread(ctx, *communityID, created.ID); err != nil {
			h.Log.Warn("adding community thread reference failed", zap.Error(err))
		}
	}

	authors := map[primitive.ObjectID]authorItem{
		author.ID: {ID: author.ExternalID, Username: author.Username, Name: author.Name, Image: author.Image},
	}
	commNames := map[primitive.ObjectID]string{}
	if communityID != nil {
		commNames[*communityID] = comm.PublicID
	}
	httpjson.Write(w, http.StatusCreated, toThreadItem(created, authors, commNames))
}

// HandleComment processes POST /threads/{id}/comments.
func (h *Handler) HandleComment(w http.ResponseWriter, r *http.Request) {
	externalUserID, _ := auth.CurrentUserID(r)

	parentID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid thread id")
		return
	}

	var input commentInput
	if err := httpjson.Decode(r, &input); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	input.Text = strings.TrimSpace(input.Text)
	if result := inputval.Validate(input); result.HasErrors() {
		httpjson.Error(w, http.StatusBadRequest, result.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	author, err := h.Users.GetByExternalID(ctx, externalUserID)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "user not found")
		return
	}

	reply, err := h.Threads.AddComment(ctx, parentID, input.Text, author.ID)
	if errors.Is(err, threadstore.ErrNotFound) {
		httpjson.Error(w, http.StatusNotFound, "thread not found")
		return
	}
	if errors.Is(err, threadstore.ErrEmptyText) {
		httpjson.Error(w, http.StatusBadRequest, "Comment text is empty.")
		return
	}
	if err != nil {
		h.Log.Error("adding comment failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "adding comment failed")
		return
	}

	if err := h.Users.AddThread(ctx, author.ID, reply.ID); err != nil {
		h.Log.Warn("adding author thread reference failed", zap.Error(err))
	}

	authors := map[primitive.ObjectID]authorItem{
		author.ID: {ID: author.ExternalID, Username: author.Username, Name: author.Name, Image: author.Image},
	}
	httpjson.Write(w, http.StatusCreated, toThreadItem(reply, authors, nil))
}
