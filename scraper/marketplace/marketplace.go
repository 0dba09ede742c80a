package marketplace

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"dealwatch/config"
	"dealwatch/models"
	"dealwatch/utils"
)

// resultSelector matches one search-result card. The page contract is
// three fields per card: a displayable title, an accessible label string
// that may embed a currency amount, and a (possibly relative) link.
const resultSelector = `[data-testid="item-result"], .item-result, li.result-card`

// Fetcher loads a rendered marketplace search page in a headless browser
// and extracts its result cards. Each fetch runs in its own browser
// session, closed on every exit path, so sessions are never shared
// between scrapes.
type Fetcher struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// New creates a ready-to-use marketplace Fetcher.
func New(cfg *config.Config, logger *logrus.Logger) *Fetcher {
	return &Fetcher{cfg: cfg, logger: logger}
}

// SearchURL builds the marketplace query URL for an item key: internal
// whitespace collapsed to single separators, then percent-encoded.
func (f *Fetcher) SearchURL(itemKey string) string {
	query := strings.Join(strings.Fields(itemKey), " ")
	return f.cfg.MarketplaceSearchURL + url.QueryEscape(query)
}

// FetchResults navigates to the search page for itemKey, waits (bounded)
// for at least one result card, and returns the extracted cards with URLs
// resolved absolute. A page that never shows a result card within the
// timeout is a fetch failure.
func (f *Fetcher) FetchResults(ctx context.Context, itemKey string) ([]models.RawCard, error) {
	searchURL := f.SearchURL(itemKey)
	f.logger.Infof("[marketplace] Fetching results for %q — %s", itemKey, searchURL)

	chromeBin := f.cfg.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelTab()

	timeout := time.Duration(f.cfg.PageLoadTimeoutSec) * time.Second
	runCtx, cancelRun := context.WithTimeout(tabCtx, timeout)
	defer cancelRun()

	type cardData struct {
		Title string `json:"title"`
		Label string `json:"label"`
		URL   string `json:"url"`
	}
	var cards []cardData

	err := chromedp.Run(runCtx,
		chromedp.Navigate(searchURL),
		chromedp.WaitVisible(resultSelector, chromedp.ByQuery),
		chromedp.Evaluate(`
			(function() {
				var results = [];
				var cards = document.querySelectorAll('`+resultSelector+`');
				for (var i = 0; i < cards.length; i++) {
					var card = cards[i];

					var titleEl = card.querySelector('[data-testid="item-title"]') ||
					              card.querySelector('h3, h2') ||
					              card;
					var title = (titleEl.innerText || '').trim();

					var label = card.getAttribute('aria-label') || '';
					if (!label) {
						var priceEl = card.querySelector('[data-testid="item-price"]') ||
						              card.querySelector('span[class*="price"]');
						label = priceEl ? priceEl.innerText : card.innerText;
					}

					var linkEl = card.querySelector('a[href]') || card.closest('a[href]');
					var href = linkEl ? linkEl.getAttribute('href') : '';

					results.push({
						title: title,
						label: (label || '').trim(),
						url:   href || ''
					});
				}
				return results;
			})()
		`, &cards),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("marketplace: timed out after %v waiting for results: %w", timeout, err)
		}
		return nil, fmt.Errorf("marketplace: fetch results: %w", err)
	}

	base, err := url.Parse(f.cfg.MarketplaceBaseURL)
	if err != nil {
		return nil, fmt.Errorf("marketplace: parse base URL: %w", err)
	}

	seen := utils.NewURLSet()
	rawCards := make([]models.RawCard, 0, len(cards))
	for _, c := range cards {
		if c.URL == "" {
			continue
		}

		abs := resolveURL(base, c.URL)
		if !seen.Add(abs) {
			f.logger.Debugf("[marketplace] Skipping duplicate card: %s", abs)
			continue
		}

		rawCards = append(rawCards, models.RawCard{
			Title:      c.Title,
			PriceLabel: c.Label,
			URL:        abs,
			ScrapedAt:  time.Now(),
		})
	}

	f.logger.Infof("[marketplace] %q: extracted %d cards", itemKey, len(rawCards))
	return rawCards, nil
}

// resolveURL renders a card link absolute against the marketplace base.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
