package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"dealwatch/models"
	"dealwatch/storage"
)

// ResultFetcher fetches the rendered marketplace search page for an item
// key and returns its result cards.
type ResultFetcher interface {
	FetchResults(ctx context.Context, itemKey string) ([]models.RawCard, error)
}

// ScrapeOutcome reports how one item's scrape ended within a batch.
type ScrapeOutcome struct {
	ItemKey string
	Err     error
}

// Orchestrator drives one end-to-end scrape: fetch cards, extract prices,
// run the outlier filter, and write through the listing store. It does not
// consult tracking state — callers decide which items to scrape.
type Orchestrator struct {
	fetcher  ResultFetcher
	store    storage.ListingStore
	analyzer *Analyzer
	capture  storage.RawCardWriter
	limiter  *rate.Limiter
	logger   *logrus.Logger
}

// NewOrchestrator creates an Orchestrator. capture may be nil to disable
// raw-card capture; rateLimitMs paces sequential batch scrapes.
func NewOrchestrator(fetcher ResultFetcher, store storage.ListingStore, analyzer *Analyzer,
	capture storage.RawCardWriter, rateLimitMs int, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		fetcher:  fetcher,
		store:    store,
		analyzer: analyzer,
		capture:  capture,
		limiter:  rate.NewLimiter(rate.Every(time.Duration(rateLimitMs)*time.Millisecond), 1),
		logger:   logger,
	}
}

// ScrapeItem runs one scrape for an item key. Zero priced candidates is a
// normal outcome: nothing is written and no error is returned.
func (o *Orchestrator) ScrapeItem(ctx context.Context, itemKey string) error {
	cards, err := o.fetcher.FetchResults(ctx, itemKey)
	if err != nil {
		return fmt.Errorf("scrape %q: %w", itemKey, err)
	}

	if o.capture != nil && len(cards) > 0 {
		if err := o.capture.WriteRaw(itemKey, cards); err != nil {
			o.logger.Warnf("[scrape] raw capture failed for %q: %v", itemKey, err)
		}
	}

	priced := make([]models.PricedListing, 0, len(cards))
	for _, card := range cards {
		price := ExtractPrice(card.PriceLabel)
		if price > 1 {
			priced = append(priced, models.PricedListing{
				Title: card.Title,
				Price: price,
				URL:   card.URL,
			})
		}
	}

	if len(priced) == 0 {
		o.logger.Infof("[scrape] %q: no priced candidates in %d cards — nothing to store", itemKey, len(cards))
		return nil
	}

	analysis := o.analyzer.Analyze(priced)

	if err := o.store.AddListings(itemKey, analysis.Valid); err != nil {
		return fmt.Errorf("scrape %q: %w", itemKey, err)
	}
	if analysis.HasAverage {
		if err := o.store.AddAveragePrice(itemKey, analysis.Average); err != nil {
			return fmt.Errorf("scrape %q: %w", itemKey, err)
		}
	}
	if err := o.store.AddBestDeals(itemKey, analysis.BestDeals); err != nil {
		return fmt.Errorf("scrape %q: %w", itemKey, err)
	}

	o.logger.Infof("[scrape] %q: %d cards → %d priced → %d valid, %d deals, avg %.2f",
		itemKey, len(cards), len(priced), len(analysis.Valid), len(analysis.BestDeals), analysis.Average)
	return nil
}

// ScrapeAll scrapes the given items strictly sequentially, pacing between
// items. One item's failure is captured in its outcome and never aborts
// the rest; outcomes are returned in input order.
func (o *Orchestrator) ScrapeAll(ctx context.Context, itemKeys []string) []ScrapeOutcome {
	outcomes := make([]ScrapeOutcome, 0, len(itemKeys))

	for _, key := range itemKeys {
		if err := o.limiter.Wait(ctx); err != nil {
			outcomes = append(outcomes, ScrapeOutcome{ItemKey: key, Err: err})
			continue
		}

		err := o.ScrapeItem(ctx, key)
		if err != nil {
			o.logger.Errorf("[scrape] %q failed: %v", key, err)
		}
		outcomes = append(outcomes, ScrapeOutcome{ItemKey: key, Err: err})
	}

	return outcomes
}
