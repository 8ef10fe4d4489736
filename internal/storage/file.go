package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/openrack/skiff/internal/fault"
	"github.com/openrack/skiff/internal/models"
)

// FileStore persists the whole server collection as a single JSON array at
// one path. Every Save re-reads the file, applies the upsert in memory and
// lands the new document via temp file + rename, so the file on disk is
// always a complete document. A process-wide RWMutex serializes each Save
// against every other operation; reads may overlap each other.
//
// Sharing the backing file between processes is unsupported: the lock only
// covers goroutines inside this process.
type FileStore struct {
	mu   sync.RWMutex
	path string
}

// NewFileStore opens a store backed by the JSON document at path, creating
// the parent directory if needed. A missing file is an empty collection.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &fault.PersistenceError{Op: "init", Err: err}
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Save(ctx context.Context, srv *models.Server) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	servers, err := s.load()
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range servers {
		if existing.ID == srv.ID {
			servers[i] = srv
			replaced = true
			break
		}
	}
	if !replaced {
		servers = append(servers, srv)
	}

	return s.write(servers)
}

func (s *FileStore) FindByID(ctx context.Context, id string) (*models.Server, error) {
	s.mu.RLock()
	servers, err := s.load()
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	for _, srv := range servers {
		if srv.ID == id {
			return srv, nil
		}
	}
	return nil, &fault.NotFoundError{Resource: "server", ID: id}
}

func (s *FileStore) FindAll(ctx context.Context) ([]*models.Server, error) {
	s.mu.RLock()
	servers, err := s.load()
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return servers, nil
}

func (s *FileStore) Close() error {
	return nil
}

// load parses the current file. A missing file is an empty collection; an
// unreadable or unparsable one is a persistence fault, never silently
// reset.
func (s *FileStore) load() ([]*models.Server, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &fault.PersistenceError{Op: "read", Err: err}
	}

	var servers []*models.Server
	if err := json.Unmarshal(data, &servers); err != nil {
		return nil, &fault.PersistenceError{Op: "decode", Err: fmt.Errorf("corrupt store: %w", err)}
	}
	for _, srv := range servers {
		if srv.ID == "" || !srv.Status.Valid() {
			return nil, &fault.PersistenceError{Op: "decode", Err: fmt.Errorf("corrupt store: record %q has invalid schema", srv.ID)}
		}
	}
	return servers, nil
}

// write lands the full collection atomically. On any failure the prior file
// is left intact.
func (s *FileStore) write(servers []*models.Server) error {
	if servers == nil {
		servers = []*models.Server{}
	}
	data, err := json.MarshalIndent(servers, "", "  ")
	if err != nil {
		return &fault.PersistenceError{Op: "encode", Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return &fault.PersistenceError{Op: "write", Err: err}
	}
	defer os.Remove(tmp.Name()) // no-op once the rename lands

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &fault.PersistenceError{Op: "write", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &fault.PersistenceError{Op: "write", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &fault.PersistenceError{Op: "write", Err: err}
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return &fault.PersistenceError{Op: "commit", Err: err}
	}
	return nil
}
