package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dealwatch/models"
)

// ListingRepo stores scrape artifacts in PostgreSQL.
type ListingRepo struct {
	db *sql.DB
}

// NewListingRepo wraps the shared database handle.
func NewListingRepo(db *sql.DB) *ListingRepo {
	return &ListingRepo{db: db}
}

// AddListings appends one row per market-rate listing for this scrape run.
func (r *ListingRepo) AddListings(itemKey string, listings []models.PricedListing) error {
	if len(listings) == 0 {
		return nil
	}

	now := writeTime()
	valueStrings := make([]string, 0, len(listings))
	valueArgs := make([]interface{}, 0, len(listings)*5)

	for idx, l := range listings {
		base := idx * 5
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4, base+5))
		valueArgs = append(valueArgs, itemKey, l.Title, l.Price, l.URL, now)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (item_key, title, price, url, scraped_at)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	if _, err := r.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert listings: %w", err)
	}
	return nil
}

// AddAveragePrice appends the average-price snapshot for this scrape run.
func (r *ListingRepo) AddAveragePrice(itemKey string, average float64) error {
	_, err := r.db.Exec(`
		INSERT INTO average_prices (item_key, average_price, calculated_at)
		VALUES ($1, $2, $3)
	`, itemKey, average, writeTime())
	if err != nil {
		return fmt.Errorf("postgres: insert average price: %w", err)
	}
	return nil
}

// AddBestDeals appends this scrape run's best-deal rows.
func (r *ListingRepo) AddBestDeals(itemKey string, deals []models.PricedListing) error {
	if len(deals) == 0 {
		return nil
	}

	now := writeTime()
	valueStrings := make([]string, 0, len(deals))
	valueArgs := make([]interface{}, 0, len(deals)*5)

	for idx, d := range deals {
		base := idx * 5
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4, base+5))
		valueArgs = append(valueArgs, itemKey, d.Title, d.Price, d.URL, now)
	}

	query := fmt.Sprintf(`
		INSERT INTO best_deals (item_key, title, price, url, scraped_at)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	if _, err := r.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert best deals: %w", err)
	}
	return nil
}

// PurgeItem deletes every listing, average snapshot, and best deal for an
// item key. Called when the last workspace stops tracking the item.
func (r *ListingRepo) PurgeItem(itemKey string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("postgres: begin purge: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"listings", "average_prices", "best_deals"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE item_key = $1", itemKey); err != nil {
			return fmt.Errorf("postgres: purge %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit purge: %w", err)
	}
	return nil
}

// BestDeals returns the full accumulated best-deal set for an item,
// ascending by price.
func (r *ListingRepo) BestDeals(itemKey string) ([]models.BestDeal, error) {
	rows, err := r.db.Query(`
		SELECT item_key, title, price, url, scraped_at
		FROM best_deals
		WHERE item_key = $1
		ORDER BY price ASC
	`, itemKey)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch best deals: %w", err)
	}
	defer rows.Close()

	var deals []models.BestDeal
	for rows.Next() {
		var d models.BestDeal
		var scrapedAt string
		if err := rows.Scan(&d.ItemKey, &d.Title, &d.Price, &d.URL, &scrapedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan best deal: %w", err)
		}
		d.ScrapedAt = parseTime(scrapedAt)
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

// LatestAverage returns the most recent average-price snapshot, or nil
// when the item has no history.
func (r *ListingRepo) LatestAverage(itemKey string) (*models.AveragePriceSnapshot, error) {
	var snap models.AveragePriceSnapshot
	var calculatedAt string

	err := r.db.QueryRow(`
		SELECT item_key, average_price, calculated_at
		FROM average_prices
		WHERE item_key = $1
		ORDER BY calculated_at DESC
		LIMIT 1
	`, itemKey).Scan(&snap.ItemKey, &snap.AveragePrice, &calculatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch latest average: %w", err)
	}

	snap.CalculatedAt = parseTime(calculatedAt)
	return &snap, nil
}
