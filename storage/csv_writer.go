package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"dealwatch/models"
)

// CSVWriter appends raw (unprocessed) scraped cards to a capture file so
// runs can be inspected offline. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter opens the capture file in append mode, creating it (and any
// intermediate directories) with a header row if it does not exist yet.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("csv: open file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: stat file: %w", err)
	}
	if info.Size() == 0 {
		if err := w.Write([]string{"item_key", "title", "price_label", "url", "scraped_at"}); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("csv: write header: %w", err)
		}
		w.Flush()
	}

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRaw appends one row per scraped card for the given item key.
func (c *CSVWriter) WriteRaw(itemKey string, cards []models.RawCard) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, card := range cards {
		row := []string{
			itemKey,
			card.Title,
			card.PriceLabel,
			card.URL,
			card.ScrapedAt.Format(time.RFC3339),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
