package webhooks_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/threadhive/threadhive/internal/app/features/webhooks"
	communitystore "github.com/threadhive/threadhive/internal/app/store/communities"
	userstore "github.com/threadhive/threadhive/internal/app/store/users"
	"github.com/threadhive/threadhive/internal/app/system/listingcache"
	"github.com/threadhive/threadhive/internal/app/system/membership"
	"github.com/threadhive/threadhive/internal/app/system/orgsync"
	"github.com/threadhive/threadhive/internal/app/system/retry"
	"github.com/threadhive/threadhive/internal/app/system/webhookverify"
	"github.com/threadhive/threadhive/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const testSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"

var fastPolicy = retry.Policy{Retries: 1, Initial: time.Millisecond, Multiplier: 2}

func newTestHandler(t *testing.T) (*webhooks.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	users := userstore.New(db)
	comms := communitystore.New(db)
	cache := listingcache.New(16, time.Minute)
	fake := &testutil.FakeIdentity{}
	engine := orgsync.New(users, comms, fake, fastPolicy, cache, logger)
	ms := membership.New(db.Client(), users, comms, cache, logger)

	verifier, err := webhookverify.New(testSecret)
	if err != nil {
		t.Fatalf("building verifier: %v", err)
	}

	return &webhooks.Handler{
		Verifier:    verifier,
		Engine:      engine,
		Membership:  ms,
		Users:       users,
		Communities: comms,
		Cache:       cache,
		Log:         logger,
	}, db
}

func sign(t *testing.T, msgID, timestamp string, payload []byte) string {
	t.Helper()
	key, err := base64.StdEncoding.DecodeString(testSecret[len("whsec_"):])
	if err != nil {
		t.Fatalf("bad test secret: %v", err)
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msgID + "." + timestamp + "."))
	mac.Write(payload)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// deliver posts a correctly signed webhook payload to the handler.
func deliver(t *testing.T, h *webhooks.Handler, payload []byte) *httptest.ResponseRecorder {
	t.Helper()
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req := httptest.NewRequest("POST", "/webhooks/identity", bytes.NewReader(payload))
	req.Header.Set("svix-id", "msg_test")
	req.Header.Set("svix-timestamp", ts)
	req.Header.Set("svix-signature", sign(t, "msg_test", ts, payload))
	rec := httptest.NewRecorder()
	h.Serve(rec, req)
	return rec
}

func TestServe_RejectsBadSignature(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	testutil.NewFixtures(t, db).CreateUser(ctx, "alice")

	payload := []byte(`{"type":"organization.created","data":{"id":"org_a","name":"Alpha","slug":"alpha","created_by":"user_alice"}}`)
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req := httptest.NewRequest("POST", "/webhooks/identity", bytes.NewReader(payload))
	req.Header.Set("svix-id", "msg_test")
	req.Header.Set("svix-timestamp", ts)
	req.Header.Set("svix-signature", "v1,bm90LXRoZS1yaWdodC1tYWM=")
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	comms := communitystore.New(db)
	if _, err := comms.GetByExternalID(ctx, "org_a"); err == nil {
		t.Error("unverified event must not be processed")
	}
}

func TestServe_RejectsMissingHeaders(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest("POST", "/webhooks/identity", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestServe_MalformedEvent(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := deliver(t, h, []byte(`{not json`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestServe_IgnoresUnknownEventType(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := deliver(t, h, []byte(`{"type":"user.created","data":{}}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestServe_OrganizationCreated(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	user := testutil.NewFixtures(t, db).CreateUser(ctx, "alice")

	rec := deliver(t, h, []byte(`{"type":"organization.created","data":{"id":"org_a","name":"Alpha","slug":"alpha","created_by":"user_alice"}}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	comms := communitystore.New(db)
	comm, err := comms.GetByExternalID(ctx, "org_a")
	if err != nil {
		t.Fatalf("community not created: %v", err)
	}
	if comm.Name != "Alpha" || comm.Username != "alpha" {
		t.Errorf("community = %q/%q, want Alpha/alpha", comm.Name, comm.Username)
	}
	if !comm.HasMember(user.ID) {
		t.Error("creator must be a member")
	}
}

func TestServe_OrganizationCreated_UnknownCreatorSkipped(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := deliver(t, h, []byte(`{"type":"organization.created","data":{"id":"org_a","name":"Alpha","slug":"alpha","created_by":"user_ghost"}}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (skips must not trigger redelivery)", rec.Code, http.StatusOK)
	}

	comms := communitystore.New(db)
	if _, err := comms.GetByExternalID(ctx, "org_a"); err == nil {
		t.Error("community must not be created for an unknown creator")
	}
}

func TestServe_OrganizationUpdated(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	user := fx.CreateUser(ctx, "alice")
	fx.CreateExternalCommunity(ctx, "Alpha", "org_a", user.ID)

	rec := deliver(t, h, []byte(`{"type":"organization.updated","data":{"id":"org_a","name":"Alpha Renamed","slug":"alpha-renamed"}}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	comms := communitystore.New(db)
	comm, err := comms.GetByExternalID(ctx, "org_a")
	if err != nil {
		t.Fatalf("GetByExternalID: %v", err)
	}
	if comm.Name != "Alpha Renamed" || comm.Username != "alpha-renamed" {
		t.Errorf("community = %q/%q, want the updated details", comm.Name, comm.Username)
	}
}

func TestServe_OrganizationUpdated_UnknownOrgSkipped(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := deliver(t, h, []byte(`{"type":"organization.updated","data":{"id":"org_nope","name":"Nope"}}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestServe_OrganizationDeleted(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	user := fx.CreateUser(ctx, "alice")
	comm := fx.CreateExternalCommunity(ctx, "Alpha", "org_a", user.ID)

	users := userstore.New(db)
	if err := users.AddCommunity(ctx, user.ID, comm.ID); err != nil {
		t.Fatalf("AddCommunity: %v", err)
	}

	rec := deliver(t, h, []byte(`{"type":"organization.deleted","data":{"id":"org_a"}}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	comms := communitystore.New(db)
	if _, err := comms.GetByExternalID(ctx, "org_a"); err == nil {
		t.Error("community must be deleted")
	}
	u, err := users.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	for _, c := range u.Communities {
		if c == comm.ID {
			t.Error("member back-reference must be pruned")
		}
	}
}

func TestServe_MembershipCreatedAndDeleted(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	owner := fx.CreateUser(ctx, "owner")
	joiner := fx.CreateUser(ctx, "bob")
	comm := fx.CreateExternalCommunity(ctx, "Alpha", "org_a", owner.ID)

	join := []byte(`{"type":"organizationMembership.created","data":{"organization":{"id":"org_a"},"public_user_data":{"user_id":"user_bob"}}}`)
	if rec := deliver(t, h, join); rec.Code != http.StatusOK {
		t.Fatalf("join status = %d, want %d", rec.Code, http.StatusOK)
	}

	comms := communitystore.New(db)
	got, err := comms.GetByID(ctx, comm.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.HasMember(joiner.ID) {
		t.Fatal("membership event must add the member")
	}

	leave := []byte(`{"type":"organizationMembership.deleted","data":{"organization":{"id":"org_a"},"public_user_data":{"user_id":"user_bob"}}}`)
	if rec := deliver(t, h, leave); rec.Code != http.StatusOK {
		t.Fatalf("leave status = %d, want %d", rec.Code, http.StatusOK)
	}

	got, err = comms.GetByID(ctx, comm.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.HasMember(joiner.ID) {
		t.Error("membership event must remove the member")
	}
}

func TestServe_MembershipDeleted_CreatorStays(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	owner := fx.CreateUser(ctx, "owner")
	comm := fx.CreateExternalCommunity(ctx, "Alpha", "org_a", owner.ID)

	leave := []byte(`{"type":"organizationMembership.deleted","data":{"organization":{"id":"org_a"},"public_user_data":{"user_id":"user_owner"}}}`)
	rec := deliver(t, h, leave)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (redelivery cannot fix this)", rec.Code, http.StatusOK)
	}

	comms := communitystore.New(db)
	got, err := comms.GetByID(ctx, comm.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.HasMember(owner.ID) {
		t.Error("the creator must keep their membership")
	}
}
