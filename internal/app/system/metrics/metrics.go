// Package metrics holds the service's Prometheus collectors. They are
// registered via promauto at init and exposed on /metrics by bootstrap.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sync metrics.
var (
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threadhive_sync_runs_total",
			Help: "Reconciliation runs by outcome (ok, degraded, failed).",
		},
		[]string{"outcome"},
	)

	SyncCommunitiesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "threadhive_sync_communities_created_total",
			Help: "Communities created from external organizations.",
		},
	)

	SyncCommunitiesUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "threadhive_sync_communities_updated_total",
			Help: "Communities updated from external organization changes.",
		},
	)

	SyncItemFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "threadhive_sync_item_failures_total",
			Help: "Per-organization failures skipped during reconciliation.",
		},
	)
)

// Webhook metrics.
var (
	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threadhive_webhook_events_total",
			Help: "Identity provider webhook events by type and result.",
		},
		[]string{"type", "result"},
	)
)

// Listing cache metrics.
var (
	ListingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "threadhive_listing_cache_hits_total",
			Help: "Community listing cache hits.",
		},
	)

	ListingCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "threadhive_listing_cache_misses_total",
			Help: "Community listing cache misses.",
		},
	)

	ListingCacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "threadhive_listing_cache_invalidations_total",
			Help: "Community listing cache invalidations.",
		},
	)
)
