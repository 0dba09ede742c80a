package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"dealwatch/utils"
)

// Open connects to PostgreSQL, waits for it to become reachable, and runs
// schema migrations. The returned handle is the single shared connection
// for the whole process; callers own its lifetime.
func Open(dsn string, logger *logrus.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	}
	if err := retry.Do("postgres-ping", db.Ping); err != nil {
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return db, nil
}

// Timestamps are stored as TEXT in UTC RFC 3339 so that lexicographic
// order matches chronological order.
func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tracked_items (
			workspace_id TEXT NOT NULL,
			item_key     TEXT NOT NULL,
			added_at     TEXT NOT NULL,
			PRIMARY KEY (workspace_id, item_key)
		);

		CREATE TABLE IF NOT EXISTS listings (
			id         SERIAL PRIMARY KEY,
			item_key   TEXT          NOT NULL,
			title      TEXT          NOT NULL,
			price      NUMERIC(12,2) NOT NULL,
			url        TEXT          NOT NULL,
			scraped_at TEXT          NOT NULL
		);

		CREATE TABLE IF NOT EXISTS average_prices (
			id            SERIAL PRIMARY KEY,
			item_key      TEXT          NOT NULL,
			average_price NUMERIC(12,2) NOT NULL,
			calculated_at TEXT          NOT NULL
		);

		CREATE TABLE IF NOT EXISTS best_deals (
			id         SERIAL PRIMARY KEY,
			item_key   TEXT          NOT NULL,
			title      TEXT          NOT NULL,
			price      NUMERIC(12,2) NOT NULL,
			url        TEXT          NOT NULL,
			scraped_at TEXT          NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tracked_items_key    ON tracked_items(item_key);
		CREATE INDEX IF NOT EXISTS idx_listings_item_key    ON listings(item_key);
		CREATE INDEX IF NOT EXISTS idx_avg_prices_item_key  ON average_prices(item_key);
		CREATE INDEX IF NOT EXISTS idx_best_deals_item_key  ON best_deals(item_key, price);
	`)
	return err
}

// writeTime renders the current instant in the sortable textual form used
// by every timestamp column.
func writeTime() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
