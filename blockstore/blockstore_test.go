package blockstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hldb/welo-sub001/util/cidutil"
)

var ctx = context.Background()

func testStore(t *testing.T, s Store) {
	data := []byte("some record bytes")
	id, err := cidutil.NewCidFromBytes(data)
	require.NoError(t, err)

	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	has, err := s.Has(ctx, id)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, s.Put(ctx, id, data))
	// put is idempotent
	require.NoError(t, s.Put(ctx, id, data))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	has, err = s.Has(ctx, id)
	require.NoError(t, err)
	assert.True(t, has)

	assert.ErrorIs(t, s.Put(ctx, id, []byte("other bytes")), ErrInvalidBlock)
}

func TestInMemory(t *testing.T) {
	testStore(t, NewInMemory())

	_, err := NewInMemory().Get(ctx, "not a cid")
	assert.Error(t, err)
}

func TestAnyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.db")
	s, err := NewAnyStore(ctx, path)
	require.NoError(t, err)
	testStore(t, s)

	data := []byte("persisted")
	id, err := cidutil.NewCidFromBytes(data)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, id, data))
	require.NoError(t, s.Close())

	s, err = NewAnyStore(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}
