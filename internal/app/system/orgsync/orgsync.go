// Package orgsync reconciles local communities with the identity provider's
// organization memberships.
//
// Reconciliation is convergent rather than atomic: every pass is safe to
// repeat, and a pass interrupted mid-loop is finished by the next one. A
// failure on one organization never aborts the rest of the pass.
package orgsync

import (
	"context"
	"errors"
	"fmt"

	communitystore "github.com/threadhive/threadhive/internal/app/store/communities"
	userstore "github.com/threadhive/threadhive/internal/app/store/users"
	"github.com/threadhive/threadhive/internal/app/system/identity"
	"github.com/threadhive/threadhive/internal/app/system/listingcache"
	"github.com/threadhive/threadhive/internal/app/system/metrics"
	"github.com/threadhive/threadhive/internal/app/system/retry"
	"github.com/threadhive/threadhive/internal/app/system/slugify"
	"github.com/threadhive/threadhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// ErrUserNotFound means the acting user has no local record yet; callers
// must complete onboarding before syncing.
var ErrUserNotFound = errors.New("user not found locally")

// Result is the outcome of a reconciliation pass.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	// Message explains a degraded outcome (provider outage, local data used).
	Message string `json:"message,omitempty"`

	Created int `json:"created"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
	// FailedOrgIDs lists organizations skipped due to per-item failures.
	FailedOrgIDs []string `json:"failed_org_ids,omitempty"`

	// Communities is the user's community list after the pass.
	Communities []models.Community `json:"-"`
}

// Engine runs reconciliation passes against the stores and the provider.
type Engine struct {
	users       *userstore.Store
	communities *communitystore.Store
	provider    identity.Client
	policy      retry.Policy
	cache       *listingcache.Cache
	log         *zap.Logger
}

func New(users *userstore.Store, communities *communitystore.Store, provider identity.Client, policy retry.Policy, cache *listingcache.Cache, logger *zap.Logger) *Engine {
	return &Engine{
		users:       users,
		communities: communities,
		provider:    provider,
		policy:      policy,
		cache:       cache,
		log:         logger,
	}
}

// SyncOrganizations reconciles the user's communities with their current
// provider memberships: missing communities are created, drifted ones
// updated, and the user's membership ensured on each. If listing
// memberships fails after retries the pass degrades to the locally known
// communities instead of failing, so a provider outage never blanks the
// user's community page.
func (e *Engine) SyncOrganizations(ctx context.Context, externalUserID string) Result {
	user, err := e.users.GetByExternalID(ctx, externalUserID)
	if err != nil {
		metrics.SyncRuns.WithLabelValues("failed").Inc()
		return Result{Success: false, Error: ErrUserNotFound.Error()}
	}

	memberships, err := e.listMemberships(ctx, externalUserID)
	if err != nil {
		e.log.Warn("listing memberships failed, using local data",
			zap.String("user", externalUserID),
			zap.Error(err))
		metrics.SyncRuns.WithLabelValues("degraded").Inc()

		local, lerr := e.communities.ListByMember(ctx, user.ID)
		if lerr != nil {
			metrics.SyncRuns.WithLabelValues("failed").Inc()
			return Result{Success: false, Error: lerr.Error()}
		}
		if len(local) == 0 {
			// Nothing local to degrade to.
			return Result{Success: false, Error: fmt.Sprintf("listing memberships: %v", err)}
		}
		return Result{
			Success:     true,
			Message:     "identity provider unavailable; showing locally known communities",
			Communities: local,
		}
	}

	extIDs := make([]string, 0, len(memberships))
	for _, m := range memberships {
		extIDs = append(extIDs, m.Organization.ID)
	}

	known := map[string]models.Community{}
	if len(extIDs) > 0 {
		comms, err := e.communities.Find(ctx, bson.M{"external_id": bson.M{"$in": extIDs}})
		if err != nil {
			metrics.SyncRuns.WithLabelValues("failed").Inc()
			return Result{Success: false, Error: err.Error()}
		}
		for _, c := range comms {
			known[c.ExternalID] = c
		}
	}

	res := Result{Success: true}
	for _, m := range memberships {
		orgID := m.Organization.ID
		if comm, ok := known[orgID]; ok {
			if err := e.syncKnown(ctx, comm, user); err != nil {
				e.skipItem(&res, orgID, "updating community", err)
				continue
			}
			changed, err := e.refreshDetails(ctx, comm)
			if err != nil {
				e.skipItem(&res, orgID, "refreshing details", err)
				continue
			}
			if changed {
				res.Updated++
			}
		} else {
			if _, err := e.createFromOrg(ctx, orgID, user); err != nil {
				e.skipItem(&res, orgID, "creating community", err)
				continue
			}
			res.Created++
		}
	}

	comms, err := e.communities.ListByMember(ctx, user.ID)
	if err == nil {
		res.Communities = comms
	}

	if res.Created > 0 || res.Updated > 0 {
		e.cache.Invalidate(listingcache.ListingKey)
	}
	metrics.SyncRuns.WithLabelValues("ok").Inc()
	return res
}

// SyncOne reconciles a single organization for the user: creates the
// community when unknown, updates it when drifted, and ensures membership.
func (e *Engine) SyncOne(ctx context.Context, externalUserID, orgID string) Result {
	user, err := e.users.GetByExternalID(ctx, externalUserID)
	if err != nil {
		return Result{Success: false, Error: ErrUserNotFound.Error()}
	}

	comm, err := e.communities.GetByExternalID(ctx, orgID)
	switch {
	case err == nil:
		if err := e.syncKnown(ctx, comm, user); err != nil {
			return Result{Success: false, Error: err.Error()}
		}
		res := Result{Success: true}
		if changed, rerr := e.refreshDetails(ctx, comm); rerr != nil {
			return Result{Success: false, Error: rerr.Error()}
		} else if changed {
			res.Updated++
		}
		return res
	case errors.Is(err, communitystore.ErrNotFound):
		created, cerr := e.createFromOrg(ctx, orgID, user)
		if cerr != nil {
			return Result{Success: false, Error: cerr.Error()}
		}
		return Result{Success: true, Created: 1, Communities: []models.Community{created}}
	default:
		return Result{Success: false, Error: err.Error()}
	}
}

// CleanupDeleted removes the user from communities whose provider
// membership no longer exists: the inverse diff of SyncOrganizations. A
// listing failure aborts the cleanup; removals must never be based on
// guessed provider state.
func (e *Engine) CleanupDeleted(ctx context.Context, externalUserID string) Result {
	user, err := e.users.GetByExternalID(ctx, externalUserID)
	if err != nil {
		return Result{Success: false, Error: ErrUserNotFound.Error()}
	}

	memberships, err := e.listMemberships(ctx, externalUserID)
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("listing memberships: %v", err)}
	}
	current := map[string]bool{}
	for _, m := range memberships {
		current[m.Organization.ID] = true
	}

	// Only provider-linked communities the user belongs to are candidates;
	// purely local communities are never touched by cleanup.
	linked, err := e.communities.Find(ctx, bson.M{
		"external_id": bson.M{"$exists": true, "$ne": ""},
		"members":     user.ID,
	})
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	res := Result{Success: true}
	for _, comm := range linked {
		if current[comm.ExternalID] {
			continue
		}
		if _, err := e.communities.RemoveMember(ctx, comm.ID, user.ID); err != nil {
			e.skipItem(&res, comm.ExternalID, "removing member", err)
			continue
		}
		if err := e.users.RemoveCommunity(ctx, user.ID, comm.ID); err != nil {
			e.skipItem(&res, comm.ExternalID, "removing back-reference", err)
			continue
		}
		e.cache.InvalidateCommunity(comm.PublicID)
		res.Removed++
	}
	return res
}

// FullSync runs SyncOrganizations followed by CleanupDeleted and merges
// the outcomes. The cleanup half is skipped when the sync half already
// degraded, since both need provider listings.
func (e *Engine) FullSync(ctx context.Context, externalUserID string) Result {
	res := e.SyncOrganizations(ctx, externalUserID)
	if !res.Success || res.Message != "" {
		return res
	}

	cleanup := e.CleanupDeleted(ctx, externalUserID)
	if !cleanup.Success {
		res.Message = "cleanup skipped: " + cleanup.Error
		return res
	}
	res.Removed = cleanup.Removed
	res.FailedOrgIDs = append(res.FailedOrgIDs, cleanup.FailedOrgIDs...)
	if cleanup.Removed > 0 {
		if user, err := e.users.GetByExternalID(ctx, externalUserID); err == nil {
			if comms, err := e.communities.ListByMember(ctx, user.ID); err == nil {
				res.Communities = comms
			}
		}
	}
	return res
}

// CreateFromOrganization materializes a provider organization as a local
// community with the given user as creator and sole member. Used by both
// pull reconciliation and webhook intake.
func (e *Engine) CreateFromOrganization(ctx context.Context, org identity.Organization, user models.User) (models.Community, error) {
	username := org.Slug
	if username == "" {
		username = slugify.Slug(org.Name)
	}

	comm, err := e.communities.Create(ctx, communitystore.CreateParams{
		Name:       org.Name,
		Username:   username,
		Image:      org.ImageURL,
		CreatedBy:  user.ID,
		ExternalID: org.ID,
	})
	if errors.Is(err, communitystore.ErrDuplicateUsername) {
		// Slug collision with an unrelated community; qualify with the
		// organization ID suffix and try once more.
		comm, err = e.communities.Create(ctx, communitystore.CreateParams{
			Name:       org.Name,
			Username:   username + "-" + shortID(org.ID),
			Image:      org.ImageURL,
			CreatedBy:  user.ID,
			ExternalID: org.ID,
		})
	}
	if err != nil {
		return models.Community{}, err
	}

	if err := e.users.AddCommunity(ctx, user.ID, comm.ID); err != nil {
		return models.Community{}, err
	}
	metrics.SyncCommunitiesCreated.Inc()
	e.cache.InvalidateCommunity(comm.PublicID)
	e.log.Info("created community from organization",
		zap.String("org", org.ID),
		zap.String("community", comm.ID.Hex()))
	return comm, nil
}

// ApplyOrganizationUpdate overwrites the provider-owned fields of the
// linked community. Used by webhook intake.
func (e *Engine) ApplyOrganizationUpdate(ctx context.Context, org identity.Organization) error {
	comm, err := e.communities.GetByExternalID(ctx, org.ID)
	if err != nil {
		return err
	}
	username := org.Slug
	if username == "" {
		username = comm.Username
	}
	if _, err := e.communities.UpdateDetails(ctx, comm.ID, org.Name, username, org.ImageURL); err != nil {
		return err
	}
	metrics.SyncCommunitiesUpdated.Inc()
	e.cache.InvalidateCommunity(comm.PublicID)
	return nil
}

// listMemberships pages through the user's memberships with retries.
func (e *Engine) listMemberships(ctx context.Context, externalUserID string) ([]identity.Membership, error) {
	var memberships []identity.Membership
	err := retry.Do(ctx, e.policy, func(ctx context.Context) error {
		var err error
		memberships, err = e.provider.ListMemberships(ctx, externalUserID)
		return err
	})
	return memberships, err
}

// syncKnown ensures the user's membership on an already-known community,
// on both sides of the relation.
func (e *Engine) syncKnown(ctx context.Context, comm models.Community, user models.User) error {
	added, err := e.communities.AddMember(ctx, comm.ID, user.ID)
	if err != nil {
		return err
	}
	if err := e.users.AddCommunity(ctx, user.ID, comm.ID); err != nil {
		return err
	}
	if added {
		e.cache.InvalidateCommunity(comm.PublicID)
	}
	return nil
}

// refreshDetails re-fetches the organization and updates the community when
// any provider-owned field drifted. Returns whether an update was written.
func (e *Engine) refreshDetails(ctx context.Context, comm models.Community) (bool, error) {
	var org identity.Organization
	err := retry.Do(ctx, e.policy, func(ctx context.Context) error {
		var err error
		org, err = e.provider.GetOrganization(ctx, comm.ExternalID)
		return err
	})
	if err != nil {
		return false, err
	}

	username := org.Slug
	if username == "" {
		username = comm.Username
	}
	if comm.Name == org.Name && comm.Username == username && comm.Image == org.ImageURL {
		return false, nil
	}

	if _, err := e.communities.UpdateDetails(ctx, comm.ID, org.Name, username, org.ImageURL); err != nil {
		return false, err
	}
	metrics.SyncCommunitiesUpdated.Inc()
	e.cache.InvalidateCommunity(comm.PublicID)
	return true, nil
}

// createFromOrg fetches the organization's details and materializes it
// locally.
func (e *Engine) createFromOrg(ctx context.Context, orgID string, user models.User) (models.Community, error) {
	var org identity.Organization
	err := retry.Do(ctx, e.policy, func(ctx context.Context) error {
		var err error
		org, err = e.provider.GetOrganization(ctx, orgID)
		return err
	})
	if err != nil {
		return models.Community{}, err
	}
	return e.CreateFromOrganization(ctx, org, user)
}

func (e *Engine) skipItem(res *Result, orgID, action string, err error) {
	e.log.Warn("skipping organization",
		zap.String("org", orgID),
		zap.String("action", action),
		zap.Error(err))
	metrics.SyncItemFailures.Inc()
	res.FailedOrgIDs = append(res.FailedOrgIDs, orgID)
}

func shortID(orgID string) string {
	if len(orgID) > 8 {
		return orgID[len(orgID)-8:]
	}
	return orgID
}
