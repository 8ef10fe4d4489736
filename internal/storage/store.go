package storage

import (
	"context"

	"github.com/openrack/skiff/internal/models"
)

// Store is the repository port for servers. Implementations must make a
// successful Save visible to every read issued after it returns.
type Store interface {
	// Save upserts by server identifier: an existing record with the same
	// ID is replaced, otherwise the server is appended.
	Save(ctx context.Context, srv *models.Server) error
	// FindByID returns a fault.NotFoundError when no server has the ID.
	FindByID(ctx context.Context, id string) (*models.Server, error)
	// FindAll returns every persisted server in insertion order.
	FindAll(ctx context.Context) ([]*models.Server, error)
	Close() error
}
