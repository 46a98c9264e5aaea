// internal/app/features/communities/view.go
package communities

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	communitystore "github.com/threadhive/threadhive/internal/app/store/communities"
	"github.com/threadhive/threadhive/internal/app/system/auth"
	"github.com/threadhive/threadhive/internal/app/system/communityref"
	"github.com/threadhive/threadhive/internal/app/system/httpjson"
	"github.com/threadhive/threadhive/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeView handles GET /communities/{id}. The id may be an internal hex
// ID, an external organization ID, or a local public token.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	ref := communityref.Parse(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	comm, err := h.Communities.GetByRef(ctx, ref)
	if errors.Is(err, communitystore.ErrNotFound) {
		httpjson.Error(w, http.StatusNotFound, "community not found")
		return
	}
	if err != nil {
		h.Log.Error("loading community failed", zap.String("ref", ref.String()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "loading community failed")
		return
	}

	members, err := h.Users.GetByIDs(ctx, comm.Members)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "loading members failed")
		return
	}

	var viewerID primitive.ObjectID
	hasViewer := false
	if externalID, ok := auth.CurrentUserID(r); ok {
		if viewer, err := h.Users.GetByExternalID(ctx, externalID); err == nil {
			viewerID = viewer.ID
			hasViewer = true
		}
	}

	data := viewData{
		listItem: toListItem(comm, viewerID, hasViewer),
		Members:  make([]memberItem, 0, len(members)),
	}
	for _, m := range members {
		data.Members = append(data.Members, memberItem{
			ID:       m.ExternalID,
			Username: m.Username,
			Name:     m.Name,
			Image:    m.Image,
		})
		if m.ID == comm.CreatedBy {
			data.CreatedBy = m.ExternalID
		}
	}

	httpjson.Write(w, http.StatusOK, data)
}

// ServePosts handles GET /communities/{id}/posts: the community's root
// threads, newest first.
func (h *Handler) ServePosts(w http.ResponseWriter, r *http.Request) {
	ref := communityref.Parse(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	comm, err := h.Communities.GetByRef(ctx, ref)
	if errors.Is(err, communitystore.ErrNotFound) {
		httpjson.Error(w, http.StatusNotFound, "community not found")
		return
	}
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "loading community failed")
		return
	}

	threads, err := h.Threads.ListByCommunity(ctx, comm.ID)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "loading posts failed")
		return
	}

	authorIDs := make([]primitive.ObjectID, 0, len(threads))
	for _, t := range threads {
		authorIDs = append(authorIDs, t.Author)
	}
	authors, err := h.Users.GetByIDs(ctx, authorIDs)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "loading posts failed")
		return
	}
	byID := map[primitive.ObjectID]memberItem{}
	for _, a := range authors {
		byID[a.ID] = memberItem{ID: a.ExternalID, Username: a.Username, Name: a.Name, Image: a.Image}
	}

	type postItem struct {
		ID        string     `json:"id"`
		Text      string     `json:"text"`
		Image     string     `json:"image,omitempty"`
		Author    memberItem `json:"author"`
		Replies   int        `json:"replies"`
		Likes     int        `json:"likes"`
		Reposts   int        `json:"reposts"`
		CreatedAt int64      `json:"created_at"`
	}
	posts := make([]postItem, 0, len(threads))
	for _, t := range threads {
		posts = append(posts, postItem{
			ID:        t.ID.Hex(),
			Text:      t.Text,
			Image:     t.Image,
			Author:    byID[t.Author],
			Replies:   len(t.Children),
			Likes:     len(t.Likes),
			Reposts:   len(t.Reposts),
			CreatedAt: t.CreatedAt.Unix(),
		})
	}

	httpjson.Write(w, http.StatusOK, map[string]any{"posts": posts})
}
