package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/foxxcyber/smart-pantry/internal/shopping"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := Connect(ctx, url, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, RunMigrations(ctx, db, zap.NewNop()))
	return db
}

func TestCacheEntries(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	key := "test:" + t.Name()
	t.Cleanup(func() { db.Remove(ctx, key) })

	_, err := db.Get(ctx, key)
	assert.ErrorIs(t, err, shopping.ErrCacheMiss)

	require.NoError(t, db.Set(ctx, key, []byte(`{"a":1}`)))
	require.NoError(t, db.Set(ctx, key, []byte(`{"a":2}`)))
	got, err := db.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":2}`), got)

	require.NoError(t, db.Remove(ctx, key))
	_, err = db.Get(ctx, key)
	assert.ErrorIs(t, err, shopping.ErrCacheMiss)
}

func TestPurgeCache(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	key := "test:" + t.Name()
	require.NoError(t, db.Set(ctx, key, []byte(`1`)))

	n, err := db.PurgeCache(ctx, time.Now().Add(48*time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	_, err = db.Get(ctx, key)
	assert.ErrorIs(t, err, shopping.ErrCacheMiss)
}

func TestRecordExport(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	user := "test-" + time.Now().Format("150405.000000")
	listID := 3

	e := &ListExport{UserID: user, ListID: &listID, ObjectKey: "exports/a.txt", ItemCount: 4}
	require.NoError(t, db.RecordExport(ctx, e))
	assert.NotZero(t, e.ID)

	exports, err := db.ListExports(ctx, user, 10)
	require.NoError(t, err)
	require.Len(t, exports, 1)
	assert.Equal(t, "exports/a.txt", exports[0].ObjectKey)
	require.NotNil(t, exports[0].ListID)
	assert.Equal(t, 3, *exports[0].ListID)
}
