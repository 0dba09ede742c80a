package storage

import "dealwatch/models"

// ListingStore persists the per-item scrape artifacts: listings,
// average-price snapshots, and best deals. All three are append-only;
// PurgeItem is the single bulk delete, invoked when the last workspace
// stops tracking an item.
type ListingStore interface {
	AddListings(itemKey string, listings []models.PricedListing) error
	AddAveragePrice(itemKey string, average float64) error
	AddBestDeals(itemKey string, deals []models.PricedListing) error
	PurgeItem(itemKey string) error
	BestDeals(itemKey string) ([]models.BestDeal, error)
	LatestAverage(itemKey string) (*models.AveragePriceSnapshot, error)
}

// TrackingStore persists which workspace tracks which item key.
type TrackingStore interface {
	Insert(workspaceID, itemKey string) error
	Delete(workspaceID, itemKey string) (bool, error)
	Exists(workspaceID, itemKey string) (bool, error)
	ExistsAny(itemKey string) (bool, error)
	CountForWorkspace(workspaceID string) (int, error)
	ListForWorkspace(workspaceID string) ([]string, error)
}

// RawCardWriter is the interface for capturing unprocessed scraped cards.
type RawCardWriter interface {
	WriteRaw(itemKey string, cards []models.RawCard) error
	Close() error
}
