// internal/app/features/threads/view.go
package threads

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	threadstore "github.com/threadhive/threadhive/internal/app/store/threads"
	"github.com/threadhive/threadhive/internal/app/system/auth"
	"github.com/threadhive/threadhive/internal/app/system/httpjson"
	"github.com/threadhive/threadhive/internal/app/system/timeouts"
	"github.com/threadhive/threadhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeView handles GET /threads/{id}: the thread with two levels of
// replies.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid thread id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	root, err := h.Threads.GetByID(ctx, id)
	if errors.Is(err, threadstore.ErrNotFound) {
		httpjson.Error(w, http.StatusNotFound, "thread not found")
		return
	}
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "loading thread failed")
		return
	}

	children, err := h.Threads.GetByIDs(ctx, root.Children)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "loading replies failed")
		return
	}

	grandchildIDs := make([]primitive.ObjectID, 0)
	for _, c := range children {
		grandchildIDs = append(grandchildIDs, c.Children...)
	}
	grandchildren, err := h.Threads.GetByIDs(ctx, grandchildIDs)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "loading replies failed")
		return
	}

	all := make([]models.Thread, 0, 1+len(children)+len(grandchildren))
	all = append(all, root)
	all = append(all, children...)
	all = append(all, grandchildren...)
	authors, communities, err := h.hydrate(ctx, all)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "loading thread failed")
		return
	}

	byParent := map[primitive.ObjectID][]threadItem{}
	for _, g := range grandchildren {
		byParent[*g.ParentID] = append(byParent[*g.ParentID], toThreadItem(g, authors, communities))
	}

	item := toThreadItem(root, authors, communities)
	for _, c := range children {
		child := toThreadItem(c, authors, communities)
		child.Children = byParent[c.ID]
		item.Children = append(item.Children, child)
	}

	httpjson.Write(w, http.StatusOK, item)
}

// HandleLike processes POST /threads/{id}/like: an idempotent toggle.
func (h *Handler) HandleLike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.Threads.ToggleLike, "liked")
}

// HandleRepost processes POST /threads/{id}/repost: an idempotent toggle.
func (h *Handler) HandleRepost(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.Threads.ToggleRepost, "reposted")
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, op func(context.Context, primitive.ObjectID, primitive.ObjectID) (bool, error), field string) {
	externalUserID, _ := auth.CurrentUserID(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid thread id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByExternalID(ctx, externalUserID)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "user not found")
		return
	}

	active, err := op(ctx, id, user.ID)
	if errors.Is(err, threadstore.ErrNotFound) {
		httpjson.Error(w, http.StatusNotFound, "thread not found")
		return
	}
	if err != nil {
		h.Log.Error("thread toggle failed",
			zap.String("thread", id.Hex()),
			zap.String("toggle", field),
			zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "updating thread failed")
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]any{"success": true, field: active})
}
