package kvstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kiam/core/session"
)

func openStore(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, ":memory:")

	_, ok, err := s.Get(ctx, session.KeyAccessToken)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, map[string]string{
		session.KeyAccessToken: "tok",
		session.KeyTokenType:   "bearer",
		session.KeyUser:        `{"id":1}`,
	}))
	require.NoError(t, s.Set(ctx, map[string]string{session.KeyAccessToken: "tok2"}))

	val, ok, err := s.Get(ctx, session.KeyAccessToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok2", val, "upserted")

	entries, err := s.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, session.KeyAccessToken, entries[0].Key)
	assert.False(t, entries[0].UpdatedAt.IsZero())

	require.NoError(t, s.Delete(ctx, session.Keys...))
	entries, err = s.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
	require.NoError(t, s.Delete(ctx))
}

func TestSQLiteStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kiam", "session.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, map[string]string{session.KeyUser: `{"id":1}`}))
	require.NoError(t, s.Close())

	s = openStore(t, path)
	val, ok, err := s.Get(ctx, session.KeyUser)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":1}`, val)
	require.NoError(t, CreateSchema(s.db), "schema creation is idempotent")
}
