package configstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xingkaijun/modernnav/configstore"
	apperrors "github.com/xingkaijun/modernnav/internal/errors"
)

func newTestRepo(t *testing.T) *configstore.SQLiteRepo {
	t.Helper()

	repo, err := configstore.NewSQLiteRepo(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteRepoGetMissingKey(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Get(context.Background(), configstore.KeyAuthCode)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSQLiteRepoUpsertInsertsAndReplaces(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, configstore.KeyBackground, "first"))
	value, err := repo.Get(ctx, configstore.KeyBackground)
	require.NoError(t, err)
	require.Equal(t, "first", value)

	require.NoError(t, repo.Upsert(ctx, configstore.KeyBackground, "second"))
	value, err = repo.Get(ctx, configstore.KeyBackground)
	require.NoError(t, err)
	require.Equal(t, "second", value)
}

func TestSQLiteRepoAll(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, configstore.KeyCategories, "[]"))
	require.NoError(t, repo.Upsert(ctx, configstore.KeyPrefs, "{}"))

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		configstore.KeyCategories: "[]",
		configstore.KeyPrefs:      "{}",
	}, all)
}

func TestSQLiteRepoPing(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Ping(context.Background()))
}

func TestKeyAllowed(t *testing.T) {
	for _, key := range configstore.AllowedKeys {
		require.True(t, configstore.KeyAllowed(key))
	}
	require.False(t, configstore.KeyAllowed("sql_injection"))
	require.False(t, configstore.KeyAllowed(""))
}
