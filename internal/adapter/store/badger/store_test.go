package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/caixinha-backend/internal/domain"
)

func newInMemoryStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_GetMissing(t *testing.T) {
	store := newInMemoryStore(t)

	value, ok, err := store.Get(context.Background(), domain.KeyBoxes)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestStore_SetMany(t *testing.T) {
	store := newInMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetMany(ctx, map[string][]byte{
		domain.KeyBalance: []byte("100.00"),
		domain.KeyBoxes:   []byte("[]"),
	}))
	require.NoError(t, store.Set(ctx, domain.KeyBalance, []byte("90.00")))

	value, ok, err := store.Get(ctx, domain.KeyBalance)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "90.00", string(value))

	value, ok, err = store.Get(ctx, domain.KeyBoxes)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", string(value))
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, domain.KeyBalance, []byte("1356.00")))
	require.NoError(t, store.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	value, ok, err := reopened.Get(ctx, domain.KeyBalance)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1356.00", string(value))
}

func TestStore_CancelledContext(t *testing.T) {
	store := newInMemoryStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Set(ctx, domain.KeyBalance, []byte("1.00")), context.Canceled)

	_, ok, err := store.Get(context.Background(), domain.KeyBalance)
	require.NoError(t, err)
	assert.False(t, ok)
}
