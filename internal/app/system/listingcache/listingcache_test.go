package listingcache_test

import (
	"testing"
	"time"

	"github.com/threadhive/threadhive/internal/app/system/listingcache"
)

func TestCache_SetGet(t *testing.T) {
	c := listingcache.New(8, time.Minute)
	c.Set(listingcache.ListingKey, []byte(`{"communities":[]}`))

	body, ok := c.Get(listingcache.ListingKey)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(body) != `{"communities":[]}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestCache_InvalidateCommunity(t *testing.T) {
	c := listingcache.New(8, time.Minute)
	c.Set(listingcache.ListingKey, []byte("list"))
	c.Set(listingcache.CommunityKey("org_1"), []byte("view"))
	c.Set(listingcache.CommunityKey("org_2"), []byte("other"))

	c.InvalidateCommunity("org_1")

	if _, ok := c.Get(listingcache.ListingKey); ok {
		t.Error("general listing should be invalidated")
	}
	if _, ok := c.Get(listingcache.CommunityKey("org_1")); ok {
		t.Error("community view should be invalidated")
	}
	if _, ok := c.Get(listingcache.CommunityKey("org_2")); !ok {
		t.Error("unrelated community view should survive")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := listingcache.New(8, 20*time.Millisecond)
	c.Set(listingcache.ListingKey, []byte("list"))
	time.Sleep(50 * time.Millisecond)
	if _, ok := c.Get(listingcache.ListingKey); ok {
		t.Error("entry should have expired")
	}
}
