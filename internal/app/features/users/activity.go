// internal/app/features/users/activity.go
package users

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/threadhive/threadhive/internal/app/system/auth"
	"github.com/threadhive/threadhive/internal/app/system/httpjson"
	"github.com/threadhive/threadhive/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// activityItem is one reply in the activity view.
type activityItem struct {
	ThreadID  string      `json:"thread_id"` // the reply
	ParentID  string      `json:"parent_id"` // the user's thread replied to
	Text      string      `json:"text"`
	Author    profileData `json:"author"`
	CreatedAt int64       `json:"created_at"`
}

// ServeActivity handles GET /users/activity: replies other users made to
// the current user's threads, newest first.
func (h *Handler) ServeActivity(w http.ResponseWriter, r *http.Request) {
	externalUserID, _ := auth.CurrentUserID(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.GetByExternalID(ctx, externalUserID)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "user not found")
		return
	}

	replies, err := h.Threads.ListRepliesTo(ctx, user.Threads, user.ID)
	if err != nil {
		h.Log.Error("loading activity failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "loading activity failed")
		return
	}

	authorIDs := make([]primitive.ObjectID, 0, len(replies))
	for _, t := range replies {
		authorIDs = append(authorIDs, t.Author)
	}
	authors, err := h.Users.GetByIDs(ctx, authorIDs)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "loading activity failed")
		return
	}
	byID := map[primitive.ObjectID]profileData{}
	for _, a := range authors {
		byID[a.ID] = toProfile(a, nil)
	}

	items := make([]activityItem, 0, len(replies))
	for _, t := range replies {
		items = append(items, activityItem{
			ThreadID:  t.ID.Hex(),
			ParentID:  t.ParentID.Hex(),
			Text:      t.Text,
			Author:    byID[t.Author],
			CreatedAt: t.CreatedAt.Unix(),
		})
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"activity": items})
}

// ServeThreads handles GET /users/{id}/threads: everything the user
// posted, newest first.
func (h *Handler) ServeThreads(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.GetByExternalID(ctx, externalID)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "user not found")
		return
	}

	rows, err := h.Threads.ListByAuthor(ctx, user.ID)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "loading threads failed")
		return
	}

	type row struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		Image     string `json:"image,omitempty"`
		ParentID  string `json:"parent_id,omitempty"`
		Replies   int    `json:"replies"`
		Likes     int    `json:"likes"`
		Reposts   int    `json:"reposts"`
		CreatedAt int64  `json:"created_at"`
	}
	items := make([]row, 0, len(rows))
	for _, t := range rows {
		it := row{
			ID:        t.ID.Hex(),
			Text:      t.Text,
			Image:     t.Image,
			Replies:   len(t.Children),
			Likes:     len(t.Likes),
			Reposts:   len(t.Reposts),
			CreatedAt: t.CreatedAt.Unix(),
		}
		if t.ParentID != nil {
			it.ParentID = t.ParentID.Hex()
		}
		items = append(items, it)
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"threads": items})
}
