package database

import (
	"context"
	"time"
)

// ListExport records one upload of a printable list
type ListExport struct {
	ID        int       `json:"id"`
	UserID    string    `json:"user_id"`
	ListID    *int      `json:"list_id,omitempty"`
	ObjectKey string    `json:"object_key"`
	ItemCount int       `json:"item_count"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordExport stores an export and fills in its id and creation time
func (db *DB) RecordExport(ctx context.Context, e *ListExport) error {
	return db.Pool.QueryRow(ctx, `
		INSERT INTO list_exports (user_id, list_id, object_key, item_count)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, e.UserID, e.ListID, e.ObjectKey, e.ItemCount).Scan(&e.ID, &e.CreatedAt)
}

// ListExports returns a user's most recent exports
func (db *DB) ListExports(ctx context.Context, userID string, limit int) ([]*ListExport, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, list_id, object_key, item_count, created_at
		FROM list_exports
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exports []*ListExport
	for rows.Next() {
		e := &ListExport{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.ListID, &e.ObjectKey, &e.ItemCount, &e.CreatedAt); err != nil {
			return nil, err
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}
