package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrack/skiff/internal/fault"
)

func TestNewServerDefaults(t *testing.T) {
	srv, err := NewServer("web-1", 2, 4, 40)
	require.NoError(t, err)

	assert.NotEmpty(t, srv.ID)
	assert.Equal(t, "web-1", srv.Name)
	assert.Equal(t, StatusProvisioning, srv.Status)
	assert.Empty(t, srv.Disks)
	assert.NotNil(t, srv.Disks)
	assert.False(t, srv.CreatedAt.IsZero())
	assert.Equal(t, srv.CreatedAt, srv.UpdatedAt)
}

func TestNewServerUniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		srv, err := NewServer("web-1", 1, 1, 10)
		require.NoError(t, err)
		require.False(t, seen[srv.ID], "duplicate id %s", srv.ID)
		seen[srv.ID] = true
	}
}

func TestNewServerValidation(t *testing.T) {
	cases := []struct {
		name              string
		srvName           string
		cpu, ram, storage int
	}{
		{"empty name", "", 1, 1, 10},
		{"zero cpu", "web-1", 0, 1, 10},
		{"negative ram", "web-1", 1, -4, 10},
		{"zero storage", "web-1", 1, 1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewServer(tc.srvName, tc.cpu, tc.ram, tc.storage)
			var validation *fault.ValidationError
			require.ErrorAs(t, err, &validation)
		})
	}
}

func TestNewDisk(t *testing.T) {
	d, err := NewDisk(50)
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, 50, d.SizeGB)
	assert.False(t, d.AttachedAt.IsZero())

	for _, size := range []int{0, -5} {
		_, err := NewDisk(size)
		var validation *fault.ValidationError
		require.ErrorAs(t, err, &validation, "size %d", size)
	}
}

func TestAttachDiskKeepsOrder(t *testing.T) {
	srv, err := NewServer("db-1", 4, 16, 250)
	require.NoError(t, err)

	for _, size := range []int{10, 20, 30} {
		d, err := NewDisk(size)
		require.NoError(t, err)
		require.NoError(t, srv.AttachDisk(d))
	}

	require.Len(t, srv.Disks, 3)
	assert.Equal(t, 10, srv.Disks[0].SizeGB)
	assert.Equal(t, 20, srv.Disks[1].SizeGB)
	assert.Equal(t, 30, srv.Disks[2].SizeGB)
	assert.True(t, srv.UpdatedAt.After(srv.CreatedAt) || srv.UpdatedAt.Equal(srv.CreatedAt))
}

func TestAttachDiskTerminatedServer(t *testing.T) {
	srv, err := NewServer("old-1", 1, 1, 10)
	require.NoError(t, err)
	srv.Status = StatusTerminated

	d, err := NewDisk(100)
	require.NoError(t, err)

	err = srv.AttachDisk(d)
	var conflict *fault.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Empty(t, srv.Disks)
}
