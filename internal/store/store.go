// Package store persists the task list under a fixed key.
package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dori/tasksync/internal/db"
	"github.com/dori/tasksync/internal/model"
)

// Backend names accepted by Open
const (
	BackendSQLite = "sqlite"
	BackendDiskv  = "diskv"
)

// Persistence defines the persistence contract for the task list.
type Persistence interface {
	// Load returns the saved entries. ok is false when nothing has been
	// saved under the store's key yet.
	Load(ctx context.Context) (entries []model.Entry, ok bool, err error)
	Save(ctx context.Context, entries []model.Entry) error
	// Delete forgets everything saved under the store's key
	Delete(ctx context.Context) error
	Close() error
}

// Options selects and configures a backend
type Options struct {
	Backend string
	DataDir string
	Key     string
}

// Open creates the Persistence described by opts
func Open(opts Options) (Persistence, error) {
	if opts.Key == "" {
		return nil, fmt.Errorf("store: empty key")
	}

	switch opts.Backend {
	case BackendSQLite, "":
		database, err := db.Open(filepath.Join(opts.DataDir, db.FileName))
		if err != nil {
			return nil, err
		}
		return NewSQLite(database, opts.Key), nil
	case BackendDiskv:
		return NewDiskv(filepath.Join(opts.DataDir, "blobs"), opts.Key), nil
	default:
		return nil, fmt.Errorf("store: unknown backend %q", opts.Backend)
	}
}

// SQLite stores entries as rows in the sqlite database
type SQLite struct {
	db  *db.DB
	key string
}

// NewSQLite wraps an open database. The store owns database from now on
// and closes it in Close.
func NewSQLite(database *db.DB, key string) *SQLite {
	return &SQLite{db: database, key: key}
}

func (s *SQLite) Load(ctx context.Context) ([]model.Entry, bool, error) {
	return s.db.LoadEntries(ctx, s.key)
}

func (s *SQLite) Save(ctx context.Context, entries []model.Entry) error {
	return s.db.SaveEntries(ctx, s.key, entries)
}

func (s *SQLite) Delete(ctx context.Context) error {
	return s.db.DeleteList(ctx, s.key)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
