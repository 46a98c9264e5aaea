// internal/app/features/communities/list.go
package communities

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/threadhive/threadhive/internal/app/system/auth"
	"github.com/threadhive/threadhive/internal/app/system/httpjson"
	"github.com/threadhive/threadhive/internal/app/system/listingcache"
	"github.com/threadhive/threadhive/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const defaultPageSize = 20

// ServeList handles GET /communities?q=&page=&limit=.
//
// The anonymous, unfiltered first page is served from the listing cache;
// everything else (search, later pages, signed-in viewers who need their
// is_member flags) is computed per request.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	page := parsePositive(r.URL.Query().Get("page"), 1)
	limit := parsePositive(r.URL.Query().Get("limit"), defaultPageSize)

	viewerExternalID, signedIn := auth.CurrentUserID(r)
	cacheable := !signedIn && q == "" && page == 1 && limit == defaultPageSize

	if cacheable {
		if body, ok := h.Cache.Get(listingcache.ListingKey); ok {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(body)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	filter := bson.M{}
	if q != "" {
		folded := regexp.QuoteMeta(text.Fold(q))
		filter["$or"] = []bson.M{
			{"name_ci": bson.M{"$regex": folded}},
			{"username_ci": bson.M{"$regex": folded}},
		}
	}

	comms, err := h.Communities.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(page-1)*int64(limit)).
		SetLimit(int64(limit)))
	if err != nil {
		h.Log.Error("listing communities failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "listing communities failed")
		return
	}
	total, err := h.Communities.Count(ctx, filter)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "listing communities failed")
		return
	}

	var viewerID primitive.ObjectID
	hasViewer := false
	if signedIn {
		if viewer, err := h.Users.GetByExternalID(ctx, viewerExternalID); err == nil {
			viewerID = viewer.ID
			hasViewer = true
		}
	}

	data := listData{
		Communities: make([]listItem, 0, len(comms)),
		IsNext:      total > int64(page)*int64(limit),
	}
	for _, c := range comms {
		data.Communities = append(data.Communities, toListItem(c, viewerID, hasViewer))
	}

	if cacheable {
		if body, err := json.Marshal(data); err == nil {
			h.Cache.Set(listingcache.ListingKey, body)
		}
	}
	httpjson.Write(w, http.StatusOK, data)
}

// ServeSuggested handles GET /communities/suggested: the newest
// communities the caller is not in, capped at 5.
func (h *Handler) ServeSuggested(w http.ResponseWriter, r *http.Request) {
	viewerExternalID, _ := auth.CurrentUserID(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	viewer, err := h.Users.GetByExternalID(ctx, viewerExternalID)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "user not found")
		return
	}

	comms, err := h.Communities.Find(ctx,
		bson.M{"members": bson.M{"$ne": viewer.ID}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(5))
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "listing communities failed")
		return
	}

	items := make([]listItem, 0, len(comms))
	for _, c := range comms {
		items = append(items, toListItem(c, viewer.ID, true))
	}
	httpjson.Write(w, http.StatusOK, listData{Communities: items})
}

func parsePositive(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
