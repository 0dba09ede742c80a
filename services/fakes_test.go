package services

import (
	"context"
	"errors"
	"time"

	"dealwatch/models"
)

// fakeTrackingStore is an in-memory TrackingStore.
type fakeTrackingStore struct {
	pairs map[string]map[string]bool // workspaceID → itemKey → tracked
}

func newFakeTrackingStore() *fakeTrackingStore {
	return &fakeTrackingStore{pairs: make(map[string]map[string]bool)}
}

func (f *fakeTrackingStore) Insert(workspaceID, itemKey string) error {
	if f.pairs[workspaceID] == nil {
		f.pairs[workspaceID] = make(map[string]bool)
	}
	f.pairs[workspaceID][itemKey] = true
	return nil
}

func (f *fakeTrackingStore) Delete(workspaceID, itemKey string) (bool, error) {
	if !f.pairs[workspaceID][itemKey] {
		return false, nil
	}
	delete(f.pairs[workspaceID], itemKey)
	return true, nil
}

func (f *fakeTrackingStore) Exists(workspaceID, itemKey string) (bool, error) {
	return f.pairs[workspaceID][itemKey], nil
}

func (f *fakeTrackingStore) ExistsAny(itemKey string) (bool, error) {
	for _, items := range f.pairs {
		if items[itemKey] {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTrackingStore) CountForWorkspace(workspaceID string) (int, error) {
	return len(f.pairs[workspaceID]), nil
}

func (f *fakeTrackingStore) ListForWorkspace(workspaceID string) ([]string, error) {
	var keys []string
	for key := range f.pairs[workspaceID] {
		keys = append(keys, key)
	}
	return keys, nil
}

// fakeListingStore records writes and purges in memory.
type fakeListingStore struct {
	listings  map[string][]models.PricedListing
	averages  map[string][]float64
	deals     map[string][]models.PricedListing
	purged    []string
	failWrite bool
}

func newFakeListingStore() *fakeListingStore {
	return &fakeListingStore{
		listings: make(map[string][]models.PricedListing),
		averages: make(map[string][]float64),
		deals:    make(map[string][]models.PricedListing),
	}
}

func (f *fakeListingStore) AddListings(itemKey string, listings []models.PricedListing) error {
	if f.failWrite {
		return errors.New("write failed")
	}
	f.listings[itemKey] = append(f.listings[itemKey], listings...)
	return nil
}

func (f *fakeListingStore) AddAveragePrice(itemKey string, average float64) error {
	if f.failWrite {
		return errors.New("write failed")
	}
	f.averages[itemKey] = append(f.averages[itemKey], average)
	return nil
}

func (f *fakeListingStore) AddBestDeals(itemKey string, deals []models.PricedListing) error {
	if f.failWrite {
		return errors.New("write failed")
	}
	f.deals[itemKey] = append(f.deals[itemKey], deals...)
	return nil
}

func (f *fakeListingStore) PurgeItem(itemKey string) error {
	delete(f.listings, itemKey)
	delete(f.averages, itemKey)
	delete(f.deals, itemKey)
	f.purged = append(f.purged, itemKey)
	return nil
}

func (f *fakeListingStore) BestDeals(itemKey string) ([]models.BestDeal, error) {
	var deals []models.BestDeal
	for _, d := range f.deals[itemKey] {
		deals = append(deals, models.BestDeal{ItemKey: itemKey, Title: d.Title, Price: d.Price, URL: d.URL})
	}
	return deals, nil
}

func (f *fakeListingStore) LatestAverage(itemKey string) (*models.AveragePriceSnapshot, error) {
	avgs := f.averages[itemKey]
	if len(avgs) == 0 {
		return nil, nil
	}
	return &models.AveragePriceSnapshot{
		ItemKey:      itemKey,
		AveragePrice: avgs[len(avgs)-1],
		CalculatedAt: time.Now(),
	}, nil
}

// fakeFetcher serves canned cards per item key, or an error.
type fakeFetcher struct {
	cards map[string][]models.RawCard
	errs  map[string]error
	calls []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		cards: make(map[string][]models.RawCard),
		errs:  make(map[string]error),
	}
}

func (f *fakeFetcher) FetchResults(_ context.Context, itemKey string) ([]models.RawCard, error) {
	f.calls = append(f.calls, itemKey)
	if err := f.errs[itemKey]; err != nil {
		return nil, err
	}
	return f.cards[itemKey], nil
}
