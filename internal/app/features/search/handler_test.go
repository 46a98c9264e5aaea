package search_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/threadhive/threadhive/internal/app/features/search"
	communitystore "github.com/threadhive/threadhive/internal/app/store/communities"
	threadstore "github.com/threadhive/threadhive/internal/app/store/threads"
	userstore "github.com/threadhive/threadhive/internal/app/store/users"
	"github.com/threadhive/threadhive/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*search.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := search.NewHandler(userstore.New(db), communitystore.New(db), threadstore.New(db), zap.NewNop())
	return h, db
}

type results struct {
	Users       []json.RawMessage `json:"users"`
	Communities []json.RawMessage `json:"communities"`
	Threads     []json.RawMessage `json:"threads"`
}

func query(t *testing.T, h *search.Handler, q string) (*httptest.ResponseRecorder, results) {
	t.Helper()
	req := httptest.NewRequest("GET", "/search?q="+q, nil)
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	var res results
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, res
}

func TestServe_EmptyQuery(t *testing.T) {
	h, _ := newTestHandler(t)

	rec, res := query(t, h, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(res.Users) != 0 || len(res.Communities) != 0 || len(res.Threads) != 0 {
		t.Error("empty query must return empty result sets")
	}
}

func TestServe_MatchesAllTypes(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	user := fx.CreateUser(ctx, "alice")
	fx.CreateCommunity(ctx, "Alice Appreciators", user.ID)
	fx.CreateThread(ctx, "alice says hello", user.ID)

	rec, res := query(t, h, "alice")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(res.Users) != 1 {
		t.Errorf("users = %d, want 1", len(res.Users))
	}
	if len(res.Communities) != 1 {
		t.Errorf("communities = %d, want 1", len(res.Communities))
	}
	if len(res.Threads) != 1 {
		t.Errorf("threads = %d, want 1", len(res.Threads))
	}
}

func TestServe_RegexMetacharactersAreLiteral(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	user := fx.CreateUser(ctx, "alice")
	fx.CreateThread(ctx, "parens (in text)", user.ID)

	// An unbalanced metacharacter must not become a pattern error.
	rec, res := query(t, h, "%28in+text%29")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if len(res.Threads) != 1 {
		t.Errorf("threads = %d, want 1 (literal paren match)", len(res.Threads))
	}
}
