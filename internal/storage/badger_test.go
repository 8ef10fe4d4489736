package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrack/skiff/internal/fault"
	"github.com/openrack/skiff/internal/models"
)

func newTestBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBadgerStoreRoundTrip(t *testing.T) {
	store := newTestBadgerStore(t)
	ctx := context.Background()

	srv := mustServer(t, "web-1")
	require.NoError(t, store.Save(ctx, srv))

	got, err := store.FindByID(ctx, srv.ID)
	require.NoError(t, err)
	assert.Equal(t, srv.ID, got.ID)
	assert.Equal(t, "web-1", got.Name)
	assert.Equal(t, models.StatusProvisioning, got.Status)

	_, err = store.FindByID(ctx, "missing")
	var notFound *fault.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestBadgerStoreFindAllInsertionOrder(t *testing.T) {
	store := newTestBadgerStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	var want []string
	for i, name := range []string{"c", "a", "b"} {
		srv := mustServer(t, name)
		srv.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, store.Save(ctx, srv))
		want = append(want, srv.ID)
	}

	servers, err := store.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, servers, 3)
	for i, srv := range servers {
		assert.Equal(t, want[i], srv.ID, "creation order must win over key order")
	}
}

func TestBadgerStoreUpsert(t *testing.T) {
	store := newTestBadgerStore(t)
	ctx := context.Background()

	srv := mustServer(t, "web-1")
	require.NoError(t, store.Save(ctx, srv))

	d, err := models.NewDisk(100)
	require.NoError(t, err)
	require.NoError(t, srv.AttachDisk(d))
	require.NoError(t, store.Save(ctx, srv))

	servers, err := store.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, servers, 1)
	require.Len(t, servers[0].Disks, 1)
	assert.Equal(t, 100, servers[0].Disks[0].SizeGB)
}
