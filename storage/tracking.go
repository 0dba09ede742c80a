package storage

import (
	"database/sql"
	"fmt"
)

// TrackingRepo stores the per-workspace tracked-item rows.
type TrackingRepo struct {
	db *sql.DB
}

// NewTrackingRepo wraps the shared database handle.
func NewTrackingRepo(db *sql.DB) *TrackingRepo {
	return &TrackingRepo{db: db}
}

// Insert adds a (workspace, item) pair. Uniqueness is enforced by the
// primary key; callers check existence first.
func (r *TrackingRepo) Insert(workspaceID, itemKey string) error {
	_, err := r.db.Exec(`
		INSERT INTO tracked_items (workspace_id, item_key, added_at)
		VALUES ($1, $2, $3)
	`, workspaceID, itemKey, writeTime())
	if err != nil {
		return fmt.Errorf("postgres: insert tracked item: %w", err)
	}
	return nil
}

// Delete removes a (workspace, item) pair and reports whether a row was
// actually deleted.
func (r *TrackingRepo) Delete(workspaceID, itemKey string) (bool, error) {
	res, err := r.db.Exec(`
		DELETE FROM tracked_items
		WHERE workspace_id = $1 AND item_key = $2
	`, workspaceID, itemKey)
	if err != nil {
		return false, fmt.Errorf("postgres: delete tracked item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("postgres: delete tracked item: %w", err)
	}
	return affected > 0, nil
}

// Exists reports whether this workspace tracks this item.
func (r *TrackingRepo) Exists(workspaceID, itemKey string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM tracked_items
			WHERE workspace_id = $1 AND item_key = $2
		)
	`, workspaceID, itemKey).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: tracked-item exists: %w", err)
	}
	return exists, nil
}

// ExistsAny reports whether any workspace at all tracks this item.
func (r *TrackingRepo) ExistsAny(itemKey string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM tracked_items WHERE item_key = $1)
	`, itemKey).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: tracked-item exists any: %w", err)
	}
	return exists, nil
}

// CountForWorkspace returns how many items a workspace currently tracks.
func (r *TrackingRepo) CountForWorkspace(workspaceID string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM tracked_items WHERE workspace_id = $1
	`, workspaceID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: count tracked items: %w", err)
	}
	return count, nil
}

// ListForWorkspace returns a workspace's item keys in the order they were
// added.
func (r *TrackingRepo) ListForWorkspace(workspaceID string) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT item_key FROM tracked_items
		WHERE workspace_id = $1
		ORDER BY added_at, item_key
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tracked items: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("postgres: scan tracked item: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
