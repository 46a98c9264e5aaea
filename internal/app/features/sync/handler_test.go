package sync_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	syncfeature "github.com/threadhive/threadhive/internal/app/features/sync"
	communitystore "github.com/threadhive/threadhive/internal/app/store/communities"
	userstore "github.com/threadhive/threadhive/internal/app/store/users"
	"github.com/threadhive/threadhive/internal/app/system/identity"
	"github.com/threadhive/threadhive/internal/app/system/listingcache"
	"github.com/threadhive/threadhive/internal/app/system/orgsync"
	"github.com/threadhive/threadhive/internal/app/system/retry"
	"github.com/threadhive/threadhive/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var fastPolicy = retry.Policy{Retries: 1, Initial: time.Millisecond, Multiplier: 2}

func newTestHandler(t *testing.T, fake *testutil.FakeIdentity) (*syncfeature.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	users := userstore.New(db)
	comms := communitystore.New(db)
	cache := listingcache.New(16, time.Minute)
	engine := orgsync.New(users, comms, fake, fastPolicy, cache, zap.NewNop())
	return syncfeature.NewHandler(engine, zap.NewNop()), db
}

// syncResponse mirrors the handler's JSON body.
type syncResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Synced  int      `json:"synced"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Removed int      `json:"removed"`
	Failed  []string `json:"failed_org_ids"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) syncResponse {
	t.Helper()
	var resp syncResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestHandleSyncAll_CreatesCommunities(t *testing.T) {
	fake := &testutil.FakeIdentity{
		Organizations: map[string]identity.Organization{
			"org_a": {ID: "org_a", Name: "Alpha", Slug: "alpha"},
		},
	}
	fake.Memberships = map[string][]identity.Membership{
		"user_alice": {{Organization: fake.Organizations["org_a"]}},
	}

	h, db := newTestHandler(t, fake)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	testutil.NewFixtures(t, db).CreateUser(ctx, "alice")

	req := testutil.NewSignedInRequest("POST", "/sync/organizations", nil, "user_alice")
	rec := httptest.NewRecorder()
	h.HandleSyncAll(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	resp := decode(t, rec)
	if !resp.Success {
		t.Fatalf("success = false, error = %q", resp.Error)
	}
	if resp.Created != 1 || resp.Synced != 1 {
		t.Errorf("created/synced = %d/%d, want 1/1", resp.Created, resp.Synced)
	}

	comms := communitystore.New(db)
	if _, err := comms.GetByExternalID(ctx, "org_a"); err != nil {
		t.Errorf("community not created: %v", err)
	}
}

func TestHandleSyncAll_UnknownUser(t *testing.T) {
	h, _ := newTestHandler(t, &testutil.FakeIdentity{})

	req := testutil.NewSignedInRequest("POST", "/sync/organizations", nil, "user_ghost")
	rec := httptest.NewRecorder()
	h.HandleSyncAll(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if resp := decode(t, rec); resp.Success {
		t.Error("success must be false for an unknown user")
	}
}

func TestHandleSyncAll_ProviderDownNoLocalData(t *testing.T) {
	fake := &testutil.FakeIdentity{
		ListErr: &identity.APIError{StatusCode: http.StatusBadGateway, Message: "provider down"},
	}

	h, db := newTestHandler(t, fake)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	testutil.NewFixtures(t, db).CreateUser(ctx, "alice")

	req := testutil.NewSignedInRequest("POST", "/sync/organizations", nil, "user_alice")
	rec := httptest.NewRecorder()
	h.HandleSyncAll(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
}

func TestHandleSyncAll_ProviderDownDegradesToLocal(t *testing.T) {
	fake := &testutil.FakeIdentity{
		ListErr: &identity.APIError{StatusCode: http.StatusBadGateway, Message: "provider down"},
	}

	h, db := newTestHandler(t, fake)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	user := fx.CreateUser(ctx, "alice")
	fx.CreateExternalCommunity(ctx, "Alpha", "org_a", user.ID)

	req := testutil.NewSignedInRequest("POST", "/sync/organizations", nil, "user_alice")
	rec := httptest.NewRecorder()
	h.HandleSyncAll(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	resp := decode(t, rec)
	if !resp.Success {
		t.Error("an outage with local data must degrade, not fail")
	}
	if resp.Message == "" {
		t.Error("degraded outcome must carry a message")
	}
}

func TestHandleSyncOne_CreatesCommunity(t *testing.T) {
	fake := &testutil.FakeIdentity{
		Organizations: map[string]identity.Organization{
			"org_a": {ID: "org_a", Name: "Alpha", Slug: "alpha"},
		},
	}

	h, db := newTestHandler(t, fake)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	testutil.NewFixtures(t, db).CreateUser(ctx, "alice")

	req := testutil.NewSignedInRequest("POST", "/sync/organizations/org_a", nil, "user_alice")
	req = testutil.WithChiURLParam(req, "orgID", "org_a")
	rec := httptest.NewRecorder()
	h.HandleSyncOne(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if resp := decode(t, rec); resp.Created != 1 {
		t.Errorf("created = %d, want 1", resp.Created)
	}

	comms := communitystore.New(db)
	if _, err := comms.GetByExternalID(ctx, "org_a"); err != nil {
		t.Errorf("community not created: %v", err)
	}
}

func TestHandleSyncOne_UnknownOrganization(t *testing.T) {
	h, db := newTestHandler(t, &testutil.FakeIdentity{})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	testutil.NewFixtures(t, db).CreateUser(ctx, "alice")

	req := testutil.NewSignedInRequest("POST", "/sync/organizations/org_nope", nil, "user_alice")
	req = testutil.WithChiURLParam(req, "orgID", "org_nope")
	rec := httptest.NewRecorder()
	h.HandleSyncOne(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
	if resp := decode(t, rec); resp.Success {
		t.Error("success must be false for an unknown organization")
	}
}
