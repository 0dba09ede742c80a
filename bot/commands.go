package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"dealwatch/models"
	"dealwatch/services"
)

// TrackerService is the slice of the tracking registry the command
// handler needs.
type TrackerService interface {
	Track(workspaceID, item string) error
	Untrack(workspaceID, item string) error
	ListTracked(workspaceID string) ([]string, error)
}

// ScrapeService runs sequential batch scrapes.
type ScrapeService interface {
	ScrapeAll(ctx context.Context, itemKeys []string) []services.ScrapeOutcome
}

// QueryService answers read-only item queries.
type QueryService interface {
	BestDeals(item string) ([]models.BestDeal, error)
	Stats(workspaceID, item string) (services.ItemStats, error)
}

// Handler turns already-split connector commands into actions and
// human-readable reply text. The chat platform's own message parsing
// happens upstream; Handler only sees (workspace, command, text).
type Handler struct {
	tracker TrackerService
	scrapes ScrapeService
	queries QueryService
	logger  *logrus.Logger
}

// NewHandler wires the command surface over the three services.
func NewHandler(tracker TrackerService, scrapes ScrapeService, queries QueryService, logger *logrus.Logger) *Handler {
	return &Handler{tracker: tracker, scrapes: scrapes, queries: queries, logger: logger}
}

// Handle executes one command for a workspace and returns the reply text.
// Declined operations (already tracked, quota reached, not tracked) are
// normal replies; the error return is reserved for infrastructure
// failures.
func (h *Handler) Handle(ctx context.Context, workspaceID, command, text string) (string, error) {
	switch command {
	case "track":
		return h.track(workspaceID, text)
	case "untrack":
		return h.untrack(workspaceID, text)
	case "list":
		return h.list(workspaceID)
	case "scrape":
		return h.scrape(ctx, workspaceID)
	case "deals":
		return h.deals(text)
	case "stats":
		return h.stats(workspaceID, text)
	default:
		return fmt.Sprintf("Unknown command %q. Available: track, untrack, scrape, list, deals, stats.", command), nil
	}
}

func (h *Handler) track(workspaceID, text string) (string, error) {
	key := services.NormalizeKey(text)
	err := h.tracker.Track(workspaceID, key)
	switch {
	case err == nil:
		return fmt.Sprintf("Now tracking %q. Run scrape to collect listings.", key), nil
	case errors.Is(err, services.ErrAlreadyTracked):
		return fmt.Sprintf("%q is already being tracked.", key), nil
	case errors.Is(err, services.ErrQuotaExceeded):
		return "Tracked-item limit reached. Untrack something first.", nil
	default:
		return "", err
	}
}

func (h *Handler) untrack(workspaceID, text string) (string, error) {
	key := services.NormalizeKey(text)
	err := h.tracker.Untrack(workspaceID, key)
	switch {
	case err == nil:
		return fmt.Sprintf("Stopped tracking %q.", key), nil
	case errors.Is(err, services.ErrNotTracked):
		return fmt.Sprintf("%q is not being tracked.", key), nil
	default:
		return "", err
	}
}

func (h *Handler) list(workspaceID string) (string, error) {
	keys, err := h.tracker.ListTracked(workspaceID)
	if err != nil {
		return "", err
	}
	if len(keys) == 0 {
		return "No items are being tracked.", nil
	}

	var b strings.Builder
	b.WriteString("Tracked items:\n")
	for i, key := range keys {
		fmt.Fprintf(&b, "%d. %s\n", i+1, key)
	}
	return b.String(), nil
}

func (h *Handler) scrape(ctx context.Context, workspaceID string) (string, error) {
	keys, err := h.tracker.ListTracked(workspaceID)
	if err != nil {
		return "", err
	}
	if len(keys) == 0 {
		return "No items are being tracked — nothing to scrape.", nil
	}

	outcomes := h.scrapes.ScrapeAll(ctx, keys)

	var b strings.Builder
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			fmt.Fprintf(&b, "✗ %s: %v\n", outcome.ItemKey, outcome.Err)
		} else {
			fmt.Fprintf(&b, "✓ %s scraped\n", outcome.ItemKey)
		}
	}
	b.WriteString("Scrape complete.")
	return b.String(), nil
}

func (h *Handler) deals(text string) (string, error) {
	key := services.NormalizeKey(text)
	deals, err := h.queries.BestDeals(key)
	if err != nil {
		return "", err
	}
	if len(deals) == 0 {
		return fmt.Sprintf("No deals found for %q. Has it been scraped yet?", key), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Best deals for %q:\n", key)
	for i, d := range deals {
		fmt.Fprintf(&b, "%d. %s — $%.2f\n   %s\n", i+1, d.Title, d.Price, d.URL)
	}
	return b.String(), nil
}

func (h *Handler) stats(workspaceID, text string) (string, error) {
	key := services.NormalizeKey(text)
	stats, err := h.queries.Stats(workspaceID, key)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if stats.Tracked {
		fmt.Fprintf(&b, "%q is tracked by this workspace.\n", key)
	} else {
		fmt.Fprintf(&b, "%q is not tracked by this workspace.\n", key)
	}

	if stats.Latest == nil {
		b.WriteString("No price history found.")
	} else {
		fmt.Fprintf(&b, "Latest average price: $%.2f (as of %s)",
			stats.Latest.AveragePrice, stats.Latest.CalculatedAt.Format("2006-01-02 15:04"))
	}
	return b.String(), nil
}
