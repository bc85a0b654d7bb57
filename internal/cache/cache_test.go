package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/foxxcyber/smart-pantry/internal/shopping"
)

// exercise runs the behaviour every shopping.Cache must share
func exercise(t *testing.T, c shopping.Cache) {
	t.Helper()
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, shopping.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte(`[1,2]`)))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[1,2]`), got)

	require.NoError(t, c.Set(ctx, "k", []byte(`[3]`)))
	got, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[3]`), got)

	require.NoError(t, c.Remove(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, shopping.ErrCacheMiss)

	require.NoError(t, c.Remove(ctx, "never-set"))
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestMemoryCopiesValues(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	v := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", v))
	v[0] = 'x'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	exercise(t, s)
	assert.Equal(t, path, s.Path())
}

func TestSQLitePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, shopping.KeyShoppingList, []byte(`[]`)))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, shopping.KeyShoppingList)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)
}

func TestWithPrefix(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	alice := WithPrefix(m, "user:1:")
	bob := WithPrefix(m, "user:2:")

	exercise(t, alice)

	require.NoError(t, alice.Set(ctx, "k", []byte("a")))
	_, err := bob.Get(ctx, "k")
	assert.ErrorIs(t, err, shopping.ErrCacheMiss)

	raw, err := m.Get(ctx, "user:1:k")
	require.NoError(t, err)
	assert.Equal(t, "a", string(raw))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	s, err := Open(ctx, DriverMemory, "", "", log)
	require.NoError(t, err)
	assert.NoError(t, s.Close())

	s, err = Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "c.db"), "", log)
	require.NoError(t, err)
	exercise(t, s)
	assert.NoError(t, s.Close())

	_, err = Open(ctx, DriverPostgres, "", "", log)
	assert.Error(t, err)

	_, err = Open(ctx, "redis", "", "", log)
	assert.Error(t, err)
}
