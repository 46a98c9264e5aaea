// internal/app/features/threads/feed.go
package threads

import (
	"context"
	"net/http"
	"strconv"

	"github.com/threadhive/threadhive/internal/app/system/httpjson"
	"github.com/threadhive/threadhive/internal/app/system/timeouts"
	"github.com/threadhive/threadhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const defaultFeedSize = 20

// ServeFeed handles GET /threads?page=&limit=: root threads, newest first.
func (h *Handler) ServeFeed(w http.ResponseWriter, r *http.Request) {
	page := parsePositive(r.URL.Query().Get("page"), 1)
	limit := parsePositive(r.URL.Query().Get("limit"), defaultFeedSize)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, isNext, err := h.Threads.FeedPage(ctx, int64(page), int64(limit))
	if err != nil {
		h.Log.Error("loading feed failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "loading feed failed")
		return
	}

	authors, communities, err := h.hydrate(ctx, rows)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "loading feed failed")
		return
	}

	data := feedData{Threads: make([]threadItem, 0, len(rows)), IsNext: isNext}
	for _, t := range rows {
		data.Threads = append(data.Threads, toThreadItem(t, authors, communities))
	}
	httpjson.Write(w, http.StatusOK, data)
}

// hydrate loads the author summaries and community public IDs referenced
// by a batch of threads.
func (h *Handler) hydrate(ctx context.Context, rows []models.Thread) (map[primitive.ObjectID]authorItem, map[primitive.ObjectID]string, error) {
	authorSet := map[primitive.ObjectID]bool{}
	commSet := map[primitive.ObjectID]bool{}
	for _, t := range rows {
		authorSet[t.Author] = true
		if t.Community != nil {
			commSet[*t.Community] = true
		}
	}

	authorIDs := make([]primitive.ObjectID, 0, len(authorSet))
	for id := range authorSet {
		authorIDs = append(authorIDs, id)
	}
	users, err := h.Users.GetByIDs(ctx, authorIDs)
	if err != nil {
		return nil, nil, err
	}
	authors := map[primitive.ObjectID]authorItem{}
	for _, u := range users {
		authors[u.ID] = authorItem{ID: u.ExternalID, Username: u.Username, Name: u.Name, Image: u.Image}
	}

	communities := map[primitive.ObjectID]string{}
	if len(commSet) > 0 {
		commIDs := make([]primitive.ObjectID, 0, len(commSet))
		for id := range commSet {
			commIDs = append(commIDs, id)
		}
		comms, err := h.Communities.Find(ctx, bson.M{"_id": bson.M{"$in": commIDs}})
		if err != nil {
			return nil, nil, err
		}
		for _, c := range comms {
			communities[c.ID] = c.PublicID
		}
	}
	return authors, communities, nil
}

func parsePositive(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
