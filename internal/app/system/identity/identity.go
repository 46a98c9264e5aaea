// Package identity is the narrow interface to the external identity
// provider. Everything the rest of the app needs from the provider goes
// through Client, so the reconciliation engine and membership code can be
// tested against a fake.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Organization is the provider's view of a group.
type Organization struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ImageURL string `json:"image_url"`
}

// Membership links a user to an organization with a role.
type Membership struct {
	Organization Organization `json:"organization"`
	Role         string       `json:"role"`
}

// Client is the set of provider operations the app consumes.
type Client interface {
	// ListMemberships returns all organization memberships for the given
	// provider user ID, following pagination to the end.
	ListMemberships(ctx context.Context, userID string) ([]Membership, error)
	// GetOrganization fetches one organization by its provider ID.
	GetOrganization(ctx context.Context, orgID string) (Organization, error)
	// CreateOrganization creates an organization owned by the given user.
	CreateOrganization(ctx context.Context, name, slug, createdBy string) (Organization, error)
	// CreateMembership adds a user to an organization with the given role.
	CreateMembership(ctx context.Context, orgID, userID, role string) error
}

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("identity provider: %d %s", e.StatusCode, e.Message)
}

// Permanent reports whether the error should not be retried. 4xx responses
// are requests that will keep failing (bad input, missing resource); 408 and
// 429 are the transient exceptions.
func (e *APIError) Permanent() bool {
	if e.StatusCode == http.StatusRequestTimeout || e.StatusCode == http.StatusTooManyRequests {
		return false
	}
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsNotFound reports whether err is a provider 404.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == http.StatusNotFound
}
