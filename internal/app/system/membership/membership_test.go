package membership_test

import (
	"errors"
	"testing"
	"time"

	communitystore "github.com/threadhive/threadhive/internal/app/store/communities"
	userstore "github.com/threadhive/threadhive/internal/app/store/users"
	"github.com/threadhive/threadhive/internal/app/system/communityref"
	"github.com/threadhive/threadhive/internal/app/system/listingcache"
	"github.com/threadhive/threadhive/internal/app/system/membership"
	"github.com/threadhive/threadhive/internal/testutil"
	"go.uber.org/zap"
)

func newService(t *testing.T) (*membership.Service, *userstore.Store, *communitystore.Store, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	users := userstore.New(db)
	comms := communitystore.New(db)
	cache := listingcache.New(16, time.Minute)
	svc := membership.New(db.Client(), users, comms, cache, zap.NewNop())
	return svc, users, comms, testutil.NewFixtures(t, db)
}

func TestJoin_AddsBothSides(t *testing.T) {
	svc, users, comms, fx := newService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fx.CreateUser(ctx, "alice")
	joiner := fx.CreateUser(ctx, "bob")
	comm := fx.CreateCommunity(ctx, "Gophers", creator.ID)

	res, err := svc.Join(ctx, communityref.FromObjectID(comm.ID), joiner.ExternalID)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if !res.Success || !res.Changed {
		t.Errorf("expected a successful changing join, got %+v", res)
	}

	got, _ := comms.GetByID(ctx, comm.ID)
	if !got.HasMember(joiner.ID) {
		t.Error("expected joiner in community members")
	}

	u, _ := users.GetByID(ctx, joiner.ID)
	found := false
	for _, c := range u.Communities {
		if c == comm.ID {
			found = true
		}
	}
	if !found {
		t.Error("expected community in user's list")
	}
}

func TestJoin_Idempotent(t *testing.T) {
	svc, _, comms, fx := newService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fx.CreateUser(ctx, "alice")
	joiner := fx.CreateUser(ctx, "bob")
	comm := fx.CreateCommunity(ctx, "Gophers", creator.ID)
	ref := communityref.FromObjectID(comm.ID)

	if _, err := svc.Join(ctx, ref, joiner.ExternalID); err != nil {
		t.Fatalf("first Join failed: %v", err)
	}

	res, err := svc.Join(ctx, ref, joiner.ExternalID)
	if err != nil {
		t.Fatalf("second Join failed: %v", err)
	}
	if !res.Success || res.Changed || res.Message != "already a member" {
		t.Errorf("expected already-a-member no-op, got %+v", res)
	}

	got, _ := comms.GetByID(ctx, comm.ID)
	count := 0
	for _, m := range got.Members {
		if m == joiner.ID {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected joiner recorded exactly once, got %d", count)
	}
}

func TestJoin_ByExternalID(t *testing.T) {
	svc, _, comms, fx := newService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fx.CreateUser(ctx, "alice")
	joiner := fx.CreateUser(ctx, "bob")
	comm := fx.CreateExternalCommunity(ctx, "Mirrored", "org_77", creator.ID)

	res, err := svc.Join(ctx, communityref.Parse("org_77"), joiner.ExternalID)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if res.Community.ID != comm.ID {
		t.Error("expected the community resolved by external ID")
	}

	got, _ := comms.GetByID(ctx, comm.ID)
	if !got.HasMember(joiner.ID) {
		t.Error("expected joiner in members")
	}
}

func TestLeave_RemovesBothSides(t *testing.T) {
	svc, users, comms, fx := newService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fx.CreateUser(ctx, "alice")
	member := fx.CreateUser(ctx, "bob")
	comm := fx.CreateCommunity(ctx, "Gophers", creator.ID)
	ref := communityref.FromObjectID(comm.ID)

	if _, err := svc.Join(ctx, ref, member.ExternalID); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	res, err := svc.Leave(ctx, ref, member.ExternalID)
	if err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if !res.Success || !res.Changed {
		t.Errorf("expected a successful changing leave, got %+v", res)
	}

	got, _ := comms.GetByID(ctx, comm.ID)
	if got.HasMember(member.ID) {
		t.Error("expected member removed from community")
	}
	u, _ := users.GetByID(ctx, member.ID)
	if len(u.Communities) != 0 {
		t.Errorf("expected user's community list emptied, got %v", u.Communities)
	}
}

func TestLeave_NotAMemberIsNoOp(t *testing.T) {
	svc, _, _, fx := newService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fx.CreateUser(ctx, "alice")
	outsider := fx.CreateUser(ctx, "bob")
	comm := fx.CreateCommunity(ctx, "Gophers", creator.ID)

	res, err := svc.Leave(ctx, communityref.FromObjectID(comm.ID), outsider.ExternalID)
	if err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if !res.Success || res.Changed || res.Message != "not a member" {
		t.Errorf("expected not-a-member no-op, got %+v", res)
	}
}

func TestLeave_CreatorCannotLeave(t *testing.T) {
	svc, _, comms, fx := newService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fx.CreateUser(ctx, "alice")
	comm := fx.CreateCommunity(ctx, "Gophers", creator.ID)

	_, err := svc.Leave(ctx, communityref.FromObjectID(comm.ID), creator.ExternalID)
	if !errors.Is(err, membership.ErrCreatorCannotLeave) {
		t.Errorf("expected ErrCreatorCannotLeave, got %v", err)
	}

	got, _ := comms.GetByID(ctx, comm.ID)
	if !got.HasMember(creator.ID) {
		t.Error("expected creator still a member")
	}
}

func TestJoin_UnknownCommunity(t *testing.T) {
	svc, _, _, fx := newService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateUser(ctx, "bob")

	_, err := svc.Join(ctx, communityref.Parse("org_missing"), "user_bob")
	if !errors.Is(err, membership.ErrCommunityNotFound) {
		t.Errorf("expected ErrCommunityNotFound, got %v", err)
	}
}

func TestJoin_UnknownUser(t *testing.T) {
	svc, _, _, fx := newService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fx.CreateUser(ctx, "alice")
	comm := fx.CreateCommunity(ctx, "Gophers", creator.ID)

	_, err := svc.Join(ctx, communityref.FromObjectID(comm.ID), "user_ghost")
	if !errors.Is(err, membership.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
