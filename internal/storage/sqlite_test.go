package storage

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE kvstore (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);
`)
	require.NoError(t, err)
	return NewSQLiteRepository(db)
}

func TestSQLiteRepository_MissingKeyReturnsNilNil(t *testing.T) {
	repo := setupRepo(t)
	v, err := repo.Get(context.Background(), KeyToken)
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestSQLiteRepository_SetGetOverwrite(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, KeyToken, []byte("tok-1")))
	v, err := repo.Get(ctx, KeyToken)
	require.NoError(t, err)
	require.Equal(t, []byte("tok-1"), v)

	require.NoError(t, repo.Set(ctx, KeyToken, []byte("tok-2")))
	v, err = repo.Get(ctx, KeyToken)
	require.NoError(t, err)
	require.Equal(t, []byte("tok-2"), v)
}

func TestSQLiteRepository_DeleteAndClear(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, KeyToken, []byte("tok")))
	require.NoError(t, repo.Set(ctx, KeyCart, []byte(`{"id":"abc","kind":"guest"}`)))

	require.NoError(t, repo.Delete(ctx, KeyToken))
	v, err := repo.Get(ctx, KeyToken)
	require.NoError(t, err)
	require.Nil(t, v)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, repo.Clear(ctx))
	all, err = repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestOpen_RunsMigrations(t *testing.T) {
	ctx := context.Background()
	db, repo, err := Open(ctx, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, repo.Set(ctx, KeyLocation, []byte(`{"ip":"203.0.113.7"}`)))
	v, err := repo.Get(ctx, KeyLocation)
	require.NoError(t, err)
	require.NotNil(t, v)
}
