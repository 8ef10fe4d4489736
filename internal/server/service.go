// Package server implements the manage-servers use cases on top of the
// storage port. The three operations here are the only mutation entry
// points into the domain.
package server

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/openrack/skiff/internal/models"
	"github.com/openrack/skiff/internal/storage"
)

// CreateServerCommand carries the inputs of the create use case.
type CreateServerCommand struct {
	Name      string
	CPUCores  int
	RAMGB     int
	StorageGB int
}

// AttachDiskCommand carries the inputs of the attach-disk use case.
type AttachDiskCommand struct {
	ServerID string
	SizeGB   int
}

// Service orchestrates the use cases. It caches no domain state and is safe
// for concurrent use; per-server op locks keep concurrent read-modify-write
// sequences against the same server from losing updates.
type Service struct {
	store storage.Store
	log   *zap.Logger
	// operations mutex per server id
	opMu sync.Map
}

// New creates a service over the given store.
func New(store storage.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log}
}

// CreateServer validates the command, builds a fresh server in provisioning
// state and persists it. Nothing is persisted when validation fails.
func (s *Service) CreateServer(ctx context.Context, cmd CreateServerCommand) (*models.Server, error) {
	srv, err := models.NewServer(cmd.Name, cmd.CPUCores, cmd.RAMGB, cmd.StorageGB)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, srv); err != nil {
		return nil, err
	}
	s.log.Info("server created",
		zap.String("id", srv.ID),
		zap.String("name", srv.Name))
	return srv, nil
}

// ListServers returns every persisted server in the store's read order.
func (s *Service) ListServers(ctx context.Context) ([]*models.Server, error) {
	return s.store.FindAll(ctx)
}

// AttachDisk loads the target server, appends a new disk and persists the
// updated record. The find-mutate-save sequence holds the server's op lock
// so concurrent attaches against the same server all land.
func (s *Service) AttachDisk(ctx context.Context, cmd AttachDiskCommand) (*models.Server, error) {
	s.lockServer(cmd.ServerID)
	defer s.unlockServer(cmd.ServerID)

	srv, err := s.store.FindByID(ctx, cmd.ServerID)
	if err != nil {
		return nil, err
	}
	disk, err := models.NewDisk(cmd.SizeGB)
	if err != nil {
		return nil, err
	}
	if err := srv.AttachDisk(disk); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, srv); err != nil {
		return nil, err
	}
	s.log.Info("disk attached",
		zap.String("server_id", srv.ID),
		zap.String("disk_id", disk.ID),
		zap.Int("size_gb", disk.SizeGB))
	return srv, nil
}

// lockServer ensures only one mutation per server at a time.
func (s *Service) lockServer(id string) {
	v, _ := s.opMu.LoadOrStore(id, &sync.Mutex{})
	v.(*sync.Mutex).Lock()
}

func (s *Service) unlockServer(id string) {
	v, ok := s.opMu.Load(id)
	if !ok {
		return
	}
	v.(*sync.Mutex).Unlock()
}
