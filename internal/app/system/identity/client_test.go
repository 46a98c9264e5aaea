package identity_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadhive/threadhive/internal/app/system/identity"
	"github.com/threadhive/threadhive/internal/app/system/retry"
)

func TestListMemberships_FollowsPagination(t *testing.T) {
	// 150 memberships -> two pages at the client's page size of 100.
	total := 150
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		var data []identity.Membership
		for i := offset; i < total && i < offset+limit; i++ {
			data = append(data, identity.Membership{
				Organization: identity.Organization{ID: "org_" + strconv.Itoa(i)},
				Role:         "basic_member",
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data, "total_count": total})
	}))
	defer srv.Close()

	c := identity.NewHTTPClient(srv.URL, "sk_test")
	got, err := c.ListMemberships(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Len(t, got, total)
	assert.Equal(t, "org_0", got[0].Organization.ID)
	assert.Equal(t, "org_149", got[149].Organization.ID)
}

func TestGetOrganization_NotFoundIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such organization", http.StatusNotFound)
	}))
	defer srv.Close()

	c := identity.NewHTTPClient(srv.URL, "sk_test")
	_, err := c.GetOrganization(context.Background(), "org_missing")
	require.Error(t, err)
	assert.True(t, identity.IsNotFound(err))
	assert.True(t, retry.IsPermanent(err), "404 should not be retried")
}

func TestGetOrganization_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := identity.NewHTTPClient(srv.URL, "sk_test")
	_, err := c.GetOrganization(context.Background(), "org_1")
	require.Error(t, err)
	assert.False(t, retry.IsPermanent(err))
}

func TestCreateMembership(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := identity.NewHTTPClient(srv.URL, "sk_test")
	err := c.CreateMembership(context.Background(), "org_9", "user_3", "admin")
	require.NoError(t, err)
	assert.Equal(t, "/v1/organizations/org_9/memberships", gotPath)
	assert.Equal(t, map[string]string{"user_id": "user_3", "role": "admin"}, gotBody)
}
