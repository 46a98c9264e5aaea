// internal/app/features/webhooks/handler.go
package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	communitystore "github.com/threadhive/threadhive/internal/app/store/communities"
	userstore "github.com/threadhive/threadhive/internal/app/store/users"
	"github.com/threadhive/threadhive/internal/app/system/communityref"
	"github.com/threadhive/threadhive/internal/app/system/identity"
	"github.com/threadhive/threadhive/internal/app/system/listingcache"
	"github.com/threadhive/threadhive/internal/app/system/membership"
	"github.com/threadhive/threadhive/internal/app/system/metrics"
	"github.com/threadhive/threadhive/internal/app/system/orgsync"
	"github.com/threadhive/threadhive/internal/app/system/timeouts"
	"github.com/threadhive/threadhive/internal/app/system/webhookverify"
	"go.uber.org/zap"
)

// maxPayloadBytes caps webhook bodies. Provider events are small.
const maxPayloadBytes = 256 << 10

// Handler applies identity provider push events. Each event drives the
// same create/update/remove logic as pull reconciliation, scoped to one
// entity.
type Handler struct {
	Verifier    *webhookverify.Verifier
	Engine      *orgsync.Engine
	Membership  *membership.Service
	Users       *userstore.Store
	Communities *communitystore.Store
	Cache       *listingcache.Cache
	Log         *zap.Logger
}

// event is the provider's envelope.
type event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// organizationData is the payload of organization.* events.
type organizationData struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	ImageURL  string `json:"image_url"`
	CreatedBy string `json:"created_by"`
}

// membershipData is the payload of organizationMembership.* events.
type membershipData struct {
	Organization struct {
		ID string `json:"id"`
	} `json:"organization"`
	PublicUserData struct {
		UserID string `json:"user_id"`
	} `json:"public_user_data"`
}

// Serve handles POST /webhooks/identity. The body must carry a valid
// signature; unverifiable requests get a 400 and no processing. Handled
// and skipped events both return 200 so the provider does not redeliver.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		http.Error(w, "reading body", http.StatusBadRequest)
		return
	}

	err = h.Verifier.Verify(
		r.Header.Get("svix-id"),
		r.Header.Get("svix-timestamp"),
		r.Header.Get("svix-signature"),
		payload,
	)
	if err != nil {
		h.Log.Warn("rejected webhook", zap.Error(err))
		metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	var ev event
	if err := json.Unmarshal(payload, &ev); err != nil {
		metrics.WebhookEvents.WithLabelValues("unknown", "malformed").Inc()
		http.Error(w, "malformed event", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	result := h.apply(ctx, ev)
	metrics.WebhookEvents.WithLabelValues(ev.Type, result).Inc()
	h.Log.Info("processed webhook",
		zap.String("type", ev.Type),
		zap.String("result", result))
	w.WriteHeader(http.StatusOK)
}

// apply dispatches one event and reports the outcome label. Failures that
// redelivery cannot fix (unknown user, unknown community) are "skipped";
// transient failures are "error"; those still get a 200 here because the
// provider retries via its own redelivery.
func (h *Handler) apply(ctx context.Context, ev event) string {
	switch ev.Type {
	case "organization.created":
		return h.orgCreated(ctx, ev.Data)
	case "organization.updated":
		return h.orgUpdated(ctx, ev.Data)
	case "organization.deleted":
		return h.orgDeleted(ctx, ev.Data)
	case "organizationMembership.created":
		return h.memberChanged(ctx, ev.Data, true)
	case "organizationMembership.deleted":
		return h.memberChanged(ctx, ev.Data, false)
	default:
		return "ignored"
	}
}

func (h *Handler) orgCreated(ctx context.Context, data json.RawMessage) string {
	var org organizationData
	if err := json.Unmarshal(data, &org); err != nil {
		return "malformed"
	}

	if _, err := h.Communities.GetByExternalID(ctx, org.ID); err == nil {
		return "ok" // already materialized by a pull sync
	}

	user, err := h.Users.GetByExternalID(ctx, org.CreatedBy)
	if err != nil {
		// Creator never onboarded locally; the community appears when they
		// do, via pull reconciliation.
		return "skipped"
	}

	_, err = h.Engine.CreateFromOrganization(ctx, identity.Organization{
		ID:       org.ID,
		Name:     org.Name,
		Slug:     org.Slug,
		ImageURL: org.ImageURL,
	}, user)
	if err != nil {
		h.Log.Error("webhook organization.created failed", zap.String("org", org.ID), zap.Error(err))
		return "error"
	}
	return "ok"
}

func (h *Handler) orgUpdated(ctx context.Context, data json.RawMessage) string {
	var org organizationData
	if err := json.Unmarshal(data, &org); err != nil {
		return "malformed"
	}

	err := h.Engine.ApplyOrganizationUpdate(ctx, identity.Organization{
		ID:       org.ID,
		Name:     org.Name,
		Slug:     org.Slug,
		ImageURL: org.ImageURL,
	})
	if errors.Is(err, communitystore.ErrNotFound) {
		return "skipped"
	}
	if err != nil {
		h.Log.Error("webhook organization.updated failed", zap.String("org", org.ID), zap.Error(err))
		return "error"
	}
	return "ok"
}

func (h *Handler) orgDeleted(ctx context.Context, data json.RawMessage) string {
	var org organizationData
	if err := json.Unmarshal(data, &org); err != nil {
		return "malformed"
	}

	comm, err := h.Communities.GetByExternalID(ctx, org.ID)
	if errors.Is(err, communitystore.ErrNotFound) {
		return "skipped"
	}
	if err != nil {
		return "error"
	}

	if err := h.Communities.Delete(ctx, comm.ID); err != nil {
		h.Log.Error("webhook organization.deleted failed", zap.String("org", org.ID), zap.Error(err))
		return "error"
	}
	if err := h.Users.RemoveCommunityFromAll(ctx, comm.ID); err != nil {
		// Document is gone; stale back-references are pruned by later
		// cleanup passes.
		h.Log.Warn("pruning member back-references failed",
			zap.String("community", comm.ID.Hex()), zap.Error(err))
	}
	h.Cache.InvalidateCommunity(comm.PublicID)
	return "ok"
}

func (h *Handler) memberChanged(ctx context.Context, data json.RawMessage, joined bool) string {
	var m membershipData
	if err := json.Unmarshal(data, &m); err != nil {
		return "malformed"
	}

	ref := communityref.FromExternalID(m.Organization.ID)
	var err error
	if joined {
		_, err = h.Membership.Join(ctx, ref, m.PublicUserData.UserID)
	} else {
		_, err = h.Membership.Leave(ctx, ref, m.PublicUserData.UserID)
	}

	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, membership.ErrUserNotFound),
		errors.Is(err, membership.ErrCommunityNotFound),
		errors.Is(err, membership.ErrCreatorCannotLeave):
		return "skipped"
	default:
		h.Log.Error("webhook membership event failed",
			zap.String("org", m.Organization.ID),
			zap.Bool("joined", joined),
			zap.Error(err))
		return "error"
	}
}
