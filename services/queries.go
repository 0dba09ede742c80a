package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"dealwatch/models"
	"dealwatch/storage"
)

// ItemStats is the read-only answer to a stats query. Tracked is
// informational; a stats query never blocks on tracking state. Latest is
// nil when the item has no price history.
type ItemStats struct {
	Tracked bool
	Latest  *models.AveragePriceSnapshot
}

// Queries bundles the read-only operations exposed to external callers.
type Queries struct {
	listings storage.ListingStore
	tracking storage.TrackingStore
	logger   *logrus.Logger
}

// NewQueries creates the query façade over the two stores.
func NewQueries(listings storage.ListingStore, tracking storage.TrackingStore, logger *logrus.Logger) *Queries {
	return &Queries{listings: listings, tracking: tracking, logger: logger}
}

// BestDeals returns the accumulated best-deal rows for an item, ascending
// by price. An empty slice means no deals are recorded.
func (q *Queries) BestDeals(item string) ([]models.BestDeal, error) {
	key := NormalizeKey(item)
	deals, err := q.listings.BestDeals(key)
	if err != nil {
		return nil, fmt.Errorf("deals %q: %w", key, err)
	}
	return deals, nil
}

// Stats returns whether the workspace tracks the item plus the latest
// average-price snapshot, if any exists.
func (q *Queries) Stats(workspaceID, item string) (ItemStats, error) {
	key := NormalizeKey(item)

	tracked, err := q.tracking.Exists(workspaceID, key)
	if err != nil {
		return ItemStats{}, fmt.Errorf("stats %q: %w", key, err)
	}

	latest, err := q.listings.LatestAverage(key)
	if err != nil {
		return ItemStats{}, fmt.Errorf("stats %q: %w", key, err)
	}

	return ItemStats{Tracked: tracked, Latest: latest}, nil
}
