// internal/app/features/search/handler.go
package search

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
	communitystore "github.com/threadhive/threadhive/internal/app/store/communities"
	threadstore "github.com/threadhive/threadhive/internal/app/store/threads"
	userstore "github.com/threadhive/threadhive/internal/app/store/users"
	"github.com/threadhive/threadhive/internal/app/system/httpjson"
	"github.com/threadhive/threadhive/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// perTypeLimit caps results per entity type.
const perTypeLimit = 5

// Handler serves the combined search endpoint.
type Handler struct {
	Users       *userstore.Store
	Communities *communitystore.Store
	Threads     *threadstore.Store
	Log         *zap.Logger
}

func NewHandler(users *userstore.Store, communities *communitystore.Store, threads *threadstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Users:       users,
		Communities: communities,
		Threads:     threads,
		Log:         logger,
	}
}

type userHit struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Image    string `json:"image,omitempty"`
}

type communityHit struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Image    string `json:"image,omitempty"`
}

type threadHit struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Author string `json:"author"` // internal hex ID; detail view hydrates
}

type results struct {
	Users       []userHit      `json:"users"`
	Communities []communityHit `json:"communities"`
	Threads     []threadHit    `json:"threads"`
}

// Serve handles GET /search?q=: users by name/username, communities by
// name/slug, threads by body text, capped per type.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		httpjson.Write(w, http.StatusOK, results{
			Users:       []userHit{},
			Communities: []communityHit{},
			Threads:     []threadHit{},
		})
		return
	}
	// Queries are matched as literal text, never as patterns.
	folded := regexp.QuoteMeta(text.Fold(q))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res := results{
		Users:       []userHit{},
		Communities: []communityHit{},
		Threads:     []threadHit{},
	}

	limit := options.Find().SetLimit(perTypeLimit)

	users, err := h.Users.Find(ctx, bson.M{"$or": []bson.M{
		{"username_ci": bson.M{"$regex": folded}},
		{"name_ci": bson.M{"$regex": folded}},
	}}, limit)
	if err != nil {
		h.Log.Error("user search failed", zap.String("q", q), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "search failed")
		return
	}
	for _, u := range users {
		res.Users = append(res.Users, userHit{ID: u.ExternalID, Username: u.Username, Name: u.Name, Image: u.Image})
	}

	comms, err := h.Communities.Find(ctx, bson.M{"$or": []bson.M{
		{"username_ci": bson.M{"$regex": folded}},
		{"name_ci": bson.M{"$regex": folded}},
	}}, limit)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "search failed")
		return
	}
	for _, c := range comms {
		res.Communities = append(res.Communities, communityHit{ID: c.PublicID, Name: c.Name, Username: c.Username, Image: c.Image})
	}

	threads, err := h.Threads.Find(ctx, bson.M{
		"text": bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"},
	}, limit)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "search failed")
		return
	}
	for _, t := range threads {
		res.Threads = append(res.Threads, threadHit{ID: t.ID.Hex(), Text: t.Text, Author: t.Author.Hex()})
	}

	httpjson.Write(w, http.StatusOK, res)
}
