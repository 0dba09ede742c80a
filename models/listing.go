package models

import "time"

// RawCard holds one unprocessed search-result element straight from the
// browser: the displayed title, the accessible label that may embed a
// currency amount, and the (possibly relative) link.
type RawCard struct {
	Title      string
	PriceLabel string
	URL        string
	ScrapedAt  time.Time
}

// PricedListing is a scrape-run candidate with its extracted price.
type PricedListing struct {
	Title string
	Price float64
	URL   string
}

// Listing is a persisted market-rate listing for a tracked item.
type Listing struct {
	ID        int64
	ItemKey   string
	Title     string
	Price     float64
	URL       string
	ScrapedAt time.Time
}

// AveragePriceSnapshot records the market average computed by one scrape run.
type AveragePriceSnapshot struct {
	ItemKey      string
	AveragePrice float64
	CalculatedAt time.Time
}

// BestDeal is a curated below-market listing surfaced to users.
type BestDeal struct {
	ItemKey   string
	Title     string
	Price     float64
	URL       string
	ScrapedAt time.Time
}

// TrackedItem ties an item key to the workspace that tracks it.
type TrackedItem struct {
	WorkspaceID string
	ItemKey     string
	AddedAt     time.Time
}

// Analysis is the outcome of the outlier filter for one scrape run.
// Valid listings fall inside the IQR acceptance band; Average is only
// meaningful when HasAverage is set.
type Analysis struct {
	Valid      []PricedListing
	Average    float64
	HasAverage bool
	BestDeals  []PricedListing
}
