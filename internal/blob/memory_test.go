package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "id-1", []byte("hello"), "text/plain"))
	assert.Equal(t, 1, store.Len())

	data, err := store.Get(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete(ctx, "id-1"))
	assert.Equal(t, 0, store.Len())

	_, err = store.Get(ctx, "id-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreCopiesData(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data := []byte("original")
	require.NoError(t, store.Put(ctx, "id-1", data, "text/plain"))
	data[0] = 'X'

	stored, err := store.Get(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), stored)
}
