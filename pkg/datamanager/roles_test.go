package datamanager_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/edgescript/pkg/auth"
	"github.com/orneryd/edgescript/pkg/datamanager"
)

func TestIsOwnerTrueForListedOwner(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	root := auth.NewRoot()

	dm := datamanager.New(store, root)
	require.NoError(t, dm.Append(ctx, "paperA->owner", []string{"alice"}))
	require.NoError(t, dm.Commit(ctx))

	ok, err := datamanager.New(store, root).IsOwner(ctx, "paperA", "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = datamanager.New(store, root).IsOwner(ctx, "paperA", "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsManagerTrueForListedManager(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	root := auth.NewRoot()

	dm := datamanager.New(store, root)
	require.NoError(t, dm.Append(ctx, "paperA->manager", []string{"carol"}))
	require.NoError(t, dm.Commit(ctx))

	ok, err := datamanager.New(store, root).IsManager(ctx, "paperA", "carol")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = datamanager.New(store, root).IsManager(ctx, "paperA", "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsWriterOrHigherAcceptsOwnerOrManagerOnly(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	root := auth.NewRoot()

	dm := datamanager.New(store, root)
	require.NoError(t, dm.Append(ctx, "paperA->owner", []string{"alice"}))
	require.NoError(t, dm.Append(ctx, "paperA->manager", []string{"carol"}))
	require.NoError(t, dm.Commit(ctx))

	for _, identity := range []string{"alice", "carol"} {
		ok, err := datamanager.New(store, root).IsWriterOrHigher(ctx, "paperA", identity)
		require.NoError(t, err)
		assert.True(t, ok, "expected %s to be writer-or-higher", identity)
	}

	ok, err := datamanager.New(store, root).IsWriterOrHigher(ctx, "paperA", "mallory")
	require.NoError(t, err)
	assert.False(t, ok)
}
