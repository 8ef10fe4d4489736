package storage

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sort"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/openrack/skiff/internal/fault"
	"github.com/openrack/skiff/internal/models"
)

var serverPrefix = []byte("server:")

// BadgerStore implements Store with Badger, one JSON record per server.
// Badger iterates in key order, so FindAll re-orders by creation time to
// honor the port's insertion-order reads.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(filepath.Clean(path))
	opts.Logger = nil                         // badger's own logging is too chatty for a small store
	opts = opts.WithValueLogFileSize(1 << 20) // smaller value log for local deployments
	db, err := badger.Open(opts)
	if err != nil {
		return nil, &fault.PersistenceError{Op: "open", Err: err}
	}
	return &BadgerStore{db: db}, nil
}

func serverKey(id string) []byte {
	return append(append([]byte{}, serverPrefix...), id...)
}

func (s *BadgerStore) Save(ctx context.Context, srv *models.Server) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(srv)
		if err != nil {
			return err
		}
		return txn.Set(serverKey(srv.ID), data)
	})
	if err != nil {
		return &fault.PersistenceError{Op: "write", Err: err}
	}
	return nil
}

func (s *BadgerStore) FindByID(ctx context.Context, id string) (*models.Server, error) {
	var out models.Server
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(serverKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, &fault.NotFoundError{Resource: "server", ID: id}
	}
	if err != nil {
		return nil, &fault.PersistenceError{Op: "read", Err: err}
	}
	return &out, nil
}

func (s *BadgerStore) FindAll(ctx context.Context) ([]*models.Server, error) {
	var servers []*models.Server
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = serverPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var srv models.Server
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &srv)
			}); err != nil {
				return err
			}
			servers = append(servers, &srv)
		}
		return nil
	})
	if err != nil {
		return nil, &fault.PersistenceError{Op: "read", Err: err}
	}

	sort.Slice(servers, func(i, j int) bool {
		if servers[i].CreatedAt.Equal(servers[j].CreatedAt) {
			return servers[i].ID < servers[j].ID
		}
		return servers[i].CreatedAt.Before(servers[j].CreatedAt)
	})
	return servers, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
