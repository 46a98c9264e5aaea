package testutil

import (
	"context"
	"net/http"
	"sync"

	"github.com/threadhive/threadhive/internal/app/system/identity"
)

// FakeIdentity is an in-memory identity.Client for tests. Zero value is
// usable: no organizations, no memberships, no failures.
type FakeIdentity struct {
	mu sync.Mutex

	// Memberships maps provider user ID to that user's memberships.
	Memberships map[string][]identity.Membership
	// Organizations maps organization ID to its current provider state.
	Organizations map[string]identity.Organization

	// ListErr, when set, makes ListMemberships fail.
	ListErr error
	// GetErrs maps organization IDs to injected GetOrganization failures.
	GetErrs map[string]error

	// ListCalls counts ListMemberships invocations, for retry assertions.
	ListCalls int
	// CreatedMemberships records CreateMembership calls as "orgID/userID".
	CreatedMemberships []string
}

var _ identity.Client = (*FakeIdentity)(nil)

func (f *FakeIdentity) ListMemberships(ctx context.Context, userID string) ([]identity.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListCalls++
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.Memberships[userID], nil
}

func (f *FakeIdentity) GetOrganization(ctx context.Context, orgID string) (identity.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.GetErrs[orgID]; err != nil {
		return identity.Organization{}, err
	}
	org, ok := f.Organizations[orgID]
	if !ok {
		return identity.Organization{}, &identity.APIError{StatusCode: http.StatusNotFound, Message: "organization not found"}
	}
	return org, nil
}

func (f *FakeIdentity) CreateOrganization(ctx context.Context, name, slug, createdBy string) (identity.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	org := identity.Organization{
		ID:   "org_fake_" + slug,
		Name: name,
		Slug: slug,
	}
	if f.Organizations == nil {
		f.Organizations = map[string]identity.Organization{}
	}
	f.Organizations[org.ID] = org
	return org, nil
}

func (f *FakeIdentity) CreateMembership(ctx context.Context, orgID, userID, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreatedMemberships = append(f.CreatedMemberships, orgID+"/"+userID)
	return nil
}
