package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/peterbourgon/diskv/v3"

	"github.com/dori/tasksync/internal/model"
)

// record is the on-disk shape of an entry. Unlike the wire format it keeps
// the local ID.
type record struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Editing     bool   `json:"editing"`
}

// Diskv stores the whole list as one JSON blob in a diskv directory
type Diskv struct {
	d   *diskv.Diskv
	key string
}

// NewDiskv creates a blob store rooted at basePath
func NewDiskv(basePath, key string) *Diskv {
	return &Diskv{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			TempDir:      filepath.Join(basePath, ".tmp"),
			CacheSizeMax: 1024 * 1024, // 1MB
		}),
		key: key,
	}
}

func (s *Diskv) Load(ctx context.Context) ([]model.Entry, bool, error) {
	if !s.d.Has(s.key) {
		return nil, false, nil
	}

	val, err := s.d.Read(s.key)
	if err != nil {
		return nil, false, err
	}

	var records []record
	if err := json.Unmarshal(val, &records); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", s.key, err)
	}

	entries := make([]model.Entry, len(records))
	for i, r := range records {
		entries[i] = model.Entry{
			ID:          r.ID,
			Description: r.Description,
			Completed:   r.Completed,
			Editing:     r.Editing,
		}
	}
	return entries, true, nil
}

func (s *Diskv) Save(ctx context.Context, entries []model.Entry) error {
	records := make([]record, len(entries))
	for i, e := range entries {
		records[i] = record{
			ID:          e.ID,
			Description: e.Description,
			Completed:   e.Completed,
			Editing:     e.Editing,
		}
	}

	val, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return s.d.Write(s.key, val)
}

func (s *Diskv) Delete(ctx context.Context) error {
	if !s.d.Has(s.key) {
		return nil
	}
	return s.d.Erase(s.key)
}

func (s *Diskv) Close() error {
	return nil
}
