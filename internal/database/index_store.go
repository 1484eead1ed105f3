package database

import (
	"context"
	"errors"

	"github.com/nao1215/storefront/internal/model"
)

// IndexStore adapts DB to the index cache's Store interface.
type IndexStore struct {
	db *DB
}

// NewIndexStore wraps db.
func NewIndexStore(db *DB) *IndexStore {
	return &IndexStore{db: db}
}

// Load returns the stored snapshot for name.
func (s *IndexStore) Load(ctx context.Context, name string) (*model.IndexEntry, bool, error) {
	entry, err := s.db.GetIndexEntry(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

// Save writes entry through to the database.
func (s *IndexStore) Save(ctx context.Context, entry *model.IndexEntry) error {
	return s.db.SaveIndexEntry(ctx, entry)
}
