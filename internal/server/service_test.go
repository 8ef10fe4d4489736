package server

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openrack/skiff/internal/fault"
	"github.com/openrack/skiff/internal/models"
	"github.com/openrack/skiff/internal/storage"
)

func newTestService(t *testing.T) (*Service, storage.Store) {
	t.Helper()
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "servers.json"))
	require.NoError(t, err)
	return New(store, zap.NewNop()), store
}

func createCmd(name string) CreateServerCommand {
	return CreateServerCommand{Name: name, CPUCores: 2, RAMGB: 4, StorageGB: 40}
}

func TestCreateServer(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	srv, err := svc.CreateServer(ctx, createCmd("web-1"))
	require.NoError(t, err)
	assert.NotEmpty(t, srv.ID)
	assert.Equal(t, "web-1", srv.Name)
	assert.Equal(t, models.StatusProvisioning, srv.Status)
	assert.Empty(t, srv.Disks)

	persisted, err := store.FindByID(ctx, srv.ID)
	require.NoError(t, err)
	assert.Equal(t, srv.ID, persisted.ID)
}

func TestCreateServerInvalidNamePersistsNothing(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateServer(ctx, createCmd(""))
	var validation *fault.ValidationError
	require.ErrorAs(t, err, &validation)

	servers, err := store.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, servers)
}

func TestListServersInsertionOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	var want []string
	for _, name := range []string{"web-1", "web-2", "db-1"} {
		srv, err := svc.CreateServer(ctx, createCmd(name))
		require.NoError(t, err)
		want = append(want, srv.ID)
	}

	servers, err := svc.ListServers(ctx)
	require.NoError(t, err)
	require.Len(t, servers, 3)
	for i, srv := range servers {
		assert.Equal(t, want[i], srv.ID)
	}
}

func TestAttachDisk(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	srv, err := svc.CreateServer(ctx, createCmd("web-1"))
	require.NoError(t, err)

	updated, err := svc.AttachDisk(ctx, AttachDiskCommand{ServerID: srv.ID, SizeGB: 100})
	require.NoError(t, err)
	require.Len(t, updated.Disks, 1)
	assert.Equal(t, 100, updated.Disks[0].SizeGB)
	assert.Equal(t, models.StatusProvisioning, updated.Status)

	updated, err = svc.AttachDisk(ctx, AttachDiskCommand{ServerID: srv.ID, SizeGB: 50})
	require.NoError(t, err)
	require.Len(t, updated.Disks, 2)
	assert.Equal(t, 50, updated.Disks[len(updated.Disks)-1].SizeGB)

	persisted, err := store.FindByID(ctx, srv.ID)
	require.NoError(t, err)
	require.Len(t, persisted.Disks, 2)
	assert.Equal(t, 50, persisted.Disks[len(persisted.Disks)-1].SizeGB)
}

func TestAttachDiskUnknownServer(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AttachDisk(context.Background(), AttachDiskCommand{ServerID: "no-such-id", SizeGB: 10})
	var notFound *fault.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestAttachDiskInvalidSize(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	srv, err := svc.CreateServer(ctx, createCmd("web-1"))
	require.NoError(t, err)

	for _, size := range []int{0, -5} {
		_, err := svc.AttachDisk(ctx, AttachDiskCommand{ServerID: srv.ID, SizeGB: size})
		var validation *fault.ValidationError
		require.ErrorAs(t, err, &validation, "size %d", size)
	}

	persisted, err := store.FindByID(ctx, srv.ID)
	require.NoError(t, err)
	assert.Empty(t, persisted.Disks)
}

func TestAttachDiskTerminatedServer(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	srv, err := svc.CreateServer(ctx, createCmd("old-1"))
	require.NoError(t, err)
	srv.Status = models.StatusTerminated
	require.NoError(t, store.Save(ctx, srv))

	_, err = svc.AttachDisk(ctx, AttachDiskCommand{ServerID: srv.ID, SizeGB: 10})
	var conflict *fault.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestConcurrentAttachesLoseNothing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	srv, err := svc.CreateServer(ctx, createCmd("web-1"))
	require.NoError(t, err)

	const n = 16
	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AttachDisk(ctx, AttachDiskCommand{ServerID: srv.ID, SizeGB: i})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	final, err := svc.AttachDisk(ctx, AttachDiskCommand{ServerID: srv.ID, SizeGB: 1000})
	require.NoError(t, err)
	require.Len(t, final.Disks, n+1, "every concurrent attach must survive")

	sizes := make(map[int]bool)
	for _, d := range final.Disks {
		sizes[d.SizeGB] = true
	}
	for i := 1; i <= n; i++ {
		assert.True(t, sizes[i], "disk of size %d lost", i)
	}
}
