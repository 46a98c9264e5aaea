// internal/app/features/users/list.go
package users

import (
	"context"
	"net/http"
	"regexp"
	"strconv"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/threadhive/threadhive/internal/app/system/auth"
	"github.com/threadhive/threadhive/internal/app/system/httpjson"
	"github.com/threadhive/threadhive/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const defaultPageSize = 20

// ServeList handles GET /users?q=&page=&limit=: searchable user listing,
// excluding the caller.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	externalUserID, _ := auth.CurrentUserID(r)
	q := r.URL.Query().Get("q")
	page := parsePositive(r.URL.Query().Get("page"), 1)
	limit := parsePositive(r.URL.Query().Get("limit"), defaultPageSize)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	filter := bson.M{"external_id": bson.M{"$ne": externalUserID}}
	if q != "" {
		folded := regexp.QuoteMeta(text.Fold(q))
		filter["$or"] = []bson.M{
			{"username_ci": bson.M{"$regex": folded}},
			{"name_ci": bson.M{"$regex": folded}},
		}
	}

	rows, err := h.Users.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(page-1)*int64(limit)).
		SetLimit(int64(limit)))
	if err != nil {
		h.Log.Error("listing users failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "listing users failed")
		return
	}
	total, err := h.Users.Count(ctx, filter)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "listing users failed")
		return
	}

	data := listData{
		Users:  make([]profileData, 0, len(rows)),
		IsNext: total > int64(page)*int64(limit),
	}
	for _, u := range rows {
		data.Users = append(data.Users, toProfile(u, nil))
	}
	httpjson.Write(w, http.StatusOK, data)
}

// ServeSuggested handles GET /users/suggested: the newest users other than
// the caller, capped at 5.
func (h *Handler) ServeSuggested(w http.ResponseWriter, r *http.Request) {
	externalUserID, _ := auth.CurrentUserID(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rows, err := h.Users.Find(ctx,
		bson.M{"external_id": bson.M{"$ne": externalUserID}, "onboarded": true},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(5))
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "listing users failed")
		return
	}

	users := make([]profileData, 0, len(rows))
	for _, u := range rows {
		users = append(users, toProfile(u, nil))
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"users": users})
}

func parsePositive(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
