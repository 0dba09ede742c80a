package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"dealwatch/storage"
)

var (
	// ErrAlreadyTracked means the workspace already tracks this item.
	ErrAlreadyTracked = errors.New("item is already tracked by this workspace")
	// ErrNotTracked means the workspace does not track this item.
	ErrNotTracked = errors.New("item is not tracked by this workspace")
	// ErrQuotaExceeded means the workspace holds its maximum of tracked items.
	ErrQuotaExceeded = errors.New("workspace has reached its tracked-item quota")
)

// NormalizeKey converts free item text into the canonical item key:
// surrounding whitespace trimmed, folded to lower case. Every table and
// lookup uses this form.
func NormalizeKey(item string) string {
	return strings.ToLower(strings.TrimSpace(item))
}

// Tracker is the single source of truth for which workspace tracks which
// item. Untracking the last workspace for an item cascades a purge of the
// item's scrape artifacts through the ListingStore.
type Tracker struct {
	tracking storage.TrackingStore
	listings storage.ListingStore
	quota    int
	logger   *logrus.Logger
}

// NewTracker creates a Tracker enforcing the given per-workspace quota.
func NewTracker(tracking storage.TrackingStore, listings storage.ListingStore, quota int, logger *logrus.Logger) *Tracker {
	return &Tracker{
		tracking: tracking,
		listings: listings,
		quota:    quota,
		logger:   logger,
	}
}

// Track registers an item for a workspace. It fails with ErrAlreadyTracked
// or ErrQuotaExceeded without mutating anything.
func (t *Tracker) Track(workspaceID, item string) error {
	key := NormalizeKey(item)
	if key == "" {
		return fmt.Errorf("track: empty item key")
	}

	exists, err := t.tracking.Exists(workspaceID, key)
	if err != nil {
		return fmt.Errorf("track %q: %w", key, err)
	}
	if exists {
		return ErrAlreadyTracked
	}

	count, err := t.tracking.CountForWorkspace(workspaceID)
	if err != nil {
		return fmt.Errorf("track %q: %w", key, err)
	}
	if count >= t.quota {
		return ErrQuotaExceeded
	}

	if err := t.tracking.Insert(workspaceID, key); err != nil {
		return fmt.Errorf("track %q: %w", key, err)
	}

	t.logger.Infof("[tracker] workspace %s now tracks %q (%d/%d)", workspaceID, key, count+1, t.quota)
	return nil
}

// Untrack removes an item from a workspace. When no workspace tracks the
// item anymore, all of its listings, average snapshots, and best deals
// are purged. The cascade is an explicit two-step call sequence, not a
// storage-level trigger.
func (t *Tracker) Untrack(workspaceID, item string) error {
	key := NormalizeKey(item)

	deleted, err := t.tracking.Delete(workspaceID, key)
	if err != nil {
		return fmt.Errorf("untrack %q: %w", key, err)
	}
	if !deleted {
		return ErrNotTracked
	}

	stillTracked, err := t.tracking.ExistsAny(key)
	if err != nil {
		return fmt.Errorf("untrack %q: %w", key, err)
	}
	if stillTracked {
		t.logger.Infof("[tracker] workspace %s untracked %q (still tracked elsewhere)", workspaceID, key)
		return nil
	}

	if err := t.listings.PurgeItem(key); err != nil {
		return fmt.Errorf("untrack %q: purge: %w", key, err)
	}

	t.logger.Infof("[tracker] workspace %s untracked %q — last tracker, history purged", workspaceID, key)
	return nil
}

// IsTracked reports whether this workspace tracks this item.
func (t *Tracker) IsTracked(workspaceID, item string) (bool, error) {
	return t.tracking.Exists(workspaceID, NormalizeKey(item))
}

// IsTrackedByAny reports whether any workspace tracks this item.
func (t *Tracker) IsTrackedByAny(item string) (bool, error) {
	return t.tracking.ExistsAny(NormalizeKey(item))
}

// ListTracked returns the workspace's item keys in the order they were
// added.
func (t *Tracker) ListTracked(workspaceID string) ([]string, error) {
	return t.tracking.ListForWorkspace(workspaceID)
}
