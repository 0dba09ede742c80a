package services

import (
	"sort"

	"github.com/sirupsen/logrus"

	"dealwatch/models"
)

const maxDealsPerSource = 5

// Analyzer partitions a scrape run's priced listings into market-rate
// listings and outliers using the interquartile range, and derives the
// market average and the best-deal set.
type Analyzer struct {
	logger *logrus.Logger
}

// NewAnalyzer creates an Analyzer with the given logger.
func NewAnalyzer(logger *logrus.Logger) *Analyzer {
	return &Analyzer{logger: logger}
}

// Analyze runs the IQR filter over one scrape run's candidates. Input
// listings must already carry a price greater than 1. An empty input
// yields an empty Analysis — a normal no-op run, not an error.
//
// Quartiles are index-based: Q1 = sorted[n/4], Q3 = sorted[3n/4]. The
// acceptance band is [Q1 - 1.5*IQR, Q3 + 1.5*IQR] inclusive.
func (a *Analyzer) Analyze(listings []models.PricedListing) models.Analysis {
	if len(listings) == 0 {
		return models.Analysis{}
	}

	sorted := make([]models.PricedListing, len(listings))
	copy(sorted, listings)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Price < sorted[j].Price
	})

	n := len(sorted)
	q1 := sorted[n/4].Price
	q3 := sorted[3*n/4].Price
	iqr := q3 - q1
	lowerLimit := q1 - 1.5*iqr
	upperLimit := q3 + 1.5*iqr

	var valid []models.PricedListing
	for _, l := range sorted {
		if l.Price >= lowerLimit && l.Price <= upperLimit {
			valid = append(valid, l)
		}
	}

	result := models.Analysis{Valid: valid}
	if len(valid) > 0 {
		var total float64
		for _, l := range valid {
			total += l.Price
		}
		result.Average = total / float64(len(valid))
		result.HasAverage = true
	}

	result.BestDeals = bestDeals(sorted, valid, q1)

	a.logger.Debugf("[analyzer] n=%d q1=%.2f q3=%.2f band=[%.2f, %.2f] valid=%d deals=%d",
		n, q1, q3, lowerLimit, upperLimit, len(valid), len(result.BestDeals))

	return result
}

// bestDeals concatenates up to 5 listings priced below Q1 — drawn from
// the full run, low outliers included — with up to 5 listings from the
// valid set, both ascending by price. The two sources deliberately
// overlap; the output is not deduplicated.
func bestDeals(sorted, valid []models.PricedListing, q1 float64) []models.PricedListing {
	var deals []models.PricedListing

	count := 0
	for _, l := range sorted {
		if l.Price >= q1 {
			break
		}
		deals = append(deals, l)
		count++
		if count == maxDealsPerSource {
			break
		}
	}

	top := valid
	if len(top) > maxDealsPerSource {
		top = top[:maxDealsPerSource]
	}
	deals = append(deals, top...)

	return deals
}
