package localstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "register.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	s, _ := openTemp(t)

	value, ok, err := s.Get(context.Background(), "offlineOrders")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestSQLiteStore_SetOverwrites(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte(`[1]`)))
	require.NoError(t, s.Set(ctx, "k", []byte(`[1,2]`)))

	value, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[1,2]`, string(value))
}

func TestSQLiteStore_EmptyValueIsPresent(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", nil))

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	s, path := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "offlineOrders", []byte(`[{"id":"OFF-1"}]`)))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, ok, err := reopened.Get(ctx, "offlineOrders")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"OFF-1"}]`, string(value))
}

func TestSQLiteStore_Closed(t *testing.T) {
	s, _ := openTemp(t)
	require.NoError(t, s.Close())

	_, _, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Set(context.Background(), "k", []byte("v")), ErrClosed)
	assert.NoError(t, s.Close())
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(" ")
	assert.Error(t, err)
}
