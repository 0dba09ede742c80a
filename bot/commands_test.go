package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"dealwatch/models"
	"dealwatch/services"
)

type fakeTracker struct {
	trackErr   error
	untrackErr error
	tracked    []string
	listErr    error
	lastItem   string
}

func (f *fakeTracker) Track(_, item string) error {
	f.lastItem = item
	return f.trackErr
}

func (f *fakeTracker) Untrack(_, item string) error {
	f.lastItem = item
	return f.untrackErr
}

func (f *fakeTracker) ListTracked(string) ([]string, error) {
	return f.tracked, f.listErr
}

type fakeScrapes struct {
	outcomes []services.ScrapeOutcome
}

func (f *fakeScrapes) ScrapeAll(_ context.Context, keys []string) []services.ScrapeOutcome {
	if f.outcomes != nil {
		return f.outcomes
	}
	outcomes := make([]services.ScrapeOutcome, len(keys))
	for i, k := range keys {
		outcomes[i] = services.ScrapeOutcome{ItemKey: k}
	}
	return outcomes
}

type fakeQueries struct {
	deals []models.BestDeal
	stats services.ItemStats
}

func (f *fakeQueries) BestDeals(string) ([]models.BestDeal, error) { return f.deals, nil }
func (f *fakeQueries) Stats(string, string) (services.ItemStats, error) {
	return f.stats, nil
}

func newTestHandler(tr *fakeTracker, sc *fakeScrapes, q *fakeQueries) *Handler {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewHandler(tr, sc, q, logger)
}

func handle(t *testing.T, h *Handler, command, text string) string {
	t.Helper()
	reply, err := h.Handle(context.Background(), "ws1", command, text)
	if err != nil {
		t.Fatalf("Handle(%q): unexpected error %v", command, err)
	}
	return reply
}

func TestHandleTrackNormalizesText(t *testing.T) {
	tr := &fakeTracker{}
	h := newTestHandler(tr, &fakeScrapes{}, &fakeQueries{})

	reply := handle(t, h, "track", "  Green Apple ")
	if tr.lastItem != "green apple" {
		t.Errorf("tracked item: got %q, want %q", tr.lastItem, "green apple")
	}
	if !strings.Contains(reply, "green apple") {
		t.Errorf("reply should mention the normalized key, got %q", reply)
	}
}

func TestHandleTrackDeclines(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"already tracked", services.ErrAlreadyTracked, "already"},
		{"quota", services.ErrQuotaExceeded, "limit"},
	}

	for _, tt := range tests {
		tr := &fakeTracker{trackErr: tt.err}
		h := newTestHandler(tr, &fakeScrapes{}, &fakeQueries{})
		reply := handle(t, h, "track", "widget")
		if !strings.Contains(strings.ToLower(reply), tt.want) {
			t.Errorf("%s: reply %q should contain %q", tt.name, reply, tt.want)
		}
	}
}

func TestHandleTrackInfrastructureError(t *testing.T) {
	tr := &fakeTracker{trackErr: errors.New("db down")}
	h := newTestHandler(tr, &fakeScrapes{}, &fakeQueries{})

	_, err := h.Handle(context.Background(), "ws1", "track", "widget")
	if err == nil {
		t.Error("infrastructure errors should propagate, not become replies")
	}
}

func TestHandleUntrackNotTracked(t *testing.T) {
	tr := &fakeTracker{untrackErr: services.ErrNotTracked}
	h := newTestHandler(tr, &fakeScrapes{}, &fakeQueries{})

	reply := handle(t, h, "untrack", "widget")
	if !strings.Contains(reply, "not being tracked") {
		t.Errorf("reply: got %q, want a not-tracked notice", reply)
	}
}

func TestHandleListEmpty(t *testing.T) {
	h := newTestHandler(&fakeTracker{}, &fakeScrapes{}, &fakeQueries{})

	reply := handle(t, h, "list", "")
	if !strings.Contains(reply, "No items") {
		t.Errorf("reply: got %q, want empty-list notice", reply)
	}
}

func TestHandleScrapeReportsPerItem(t *testing.T) {
	tr := &fakeTracker{tracked: []string{"apple", "pear"}}
	sc := &fakeScrapes{outcomes: []services.ScrapeOutcome{
		{ItemKey: "apple"},
		{ItemKey: "pear", Err: errors.New("page load timeout")},
	}}
	h := newTestHandler(tr, sc, &fakeQueries{})

	reply := handle(t, h, "scrape", "")
	if !strings.Contains(reply, "apple scraped") {
		t.Errorf("reply should report apple success, got %q", reply)
	}
	if !strings.Contains(reply, "pear") || !strings.Contains(reply, "timeout") {
		t.Errorf("reply should report pear failure, got %q", reply)
	}
	if !strings.Contains(reply, "Scrape complete.") {
		t.Errorf("reply should end with completion message, got %q", reply)
	}
}

func TestHandleDealsEmpty(t *testing.T) {
	h := newTestHandler(&fakeTracker{}, &fakeScrapes{}, &fakeQueries{})

	reply := handle(t, h, "deals", "widget")
	if !strings.Contains(reply, "No deals found") {
		t.Errorf("reply: got %q, want no-deals notice", reply)
	}
}

func TestHandleDealsListsAscending(t *testing.T) {
	q := &fakeQueries{deals: []models.BestDeal{
		{Title: "Cheap widget", Price: 8.5, URL: "https://m.example/1"},
		{Title: "Fair widget", Price: 12, URL: "https://m.example/2"},
	}}
	h := newTestHandler(&fakeTracker{}, &fakeScrapes{}, q)

	reply := handle(t, h, "deals", "widget")
	if !strings.Contains(reply, "$8.50") || !strings.Contains(reply, "$12.00") {
		t.Errorf("reply should list both prices, got %q", reply)
	}
	if strings.Index(reply, "Cheap widget") > strings.Index(reply, "Fair widget") {
		t.Errorf("deals should keep store order, got %q", reply)
	}
}

func TestHandleStatsNoHistory(t *testing.T) {
	h := newTestHandler(&fakeTracker{}, &fakeScrapes{}, &fakeQueries{})

	reply := handle(t, h, "stats", "widget")
	if !strings.Contains(reply, "No price history") {
		t.Errorf("reply: got %q, want no-history notice", reply)
	}
}

func TestHandleUnknownCommand(t *testing.T) {
	h := newTestHandler(&fakeTracker{}, &fakeScrapes{}, &fakeQueries{})

	reply := handle(t, h, "frobnicate", "")
	if !strings.Contains(reply, "Unknown command") {
		t.Errorf("reply: got %q, want unknown-command notice", reply)
	}
}
