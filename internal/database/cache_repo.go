package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/smart-pantry/internal/shopping"
)

// Get returns the cached value for key, or shopping.ErrCacheMiss
func (db *DB) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := db.Pool.QueryRow(ctx, `SELECT value FROM cache_entries WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shopping.ErrCacheMiss
		}
		return nil, err
	}
	return value, nil
}

// Set stores value under key
func (db *DB) Set(ctx context.Context, key string, value []byte) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO cache_entries (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, value)
	return err
}

// Remove deletes key; a missing key is not an error
func (db *DB) Remove(ctx context.Context, key string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM cache_entries WHERE key = $1`, key)
	return err
}

// PurgeCache deletes entries not written since before
func (db *DB) PurgeCache(ctx context.Context, before time.Time) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM cache_entries WHERE updated_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	return tag.RowsAffected(), nil
}
