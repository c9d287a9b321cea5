// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/MKhiriev/go-doc-keeper/internal/logger"
	"github.com/MKhiriev/go-doc-keeper/models"
)

// LocalDB is a set of named collections sharing one backend.
type LocalDB struct {
	mu          sync.RWMutex
	backend     Backend
	collections map[string]*LocalCollection
	opts        []CollectionOption
	logger      *logger.Logger
}

// NewLocalDB wraps backend. opts are applied to every collection added later.
func NewLocalDB(backend Backend, log *logger.Logger, opts ...CollectionOption) *LocalDB {
	return &LocalDB{
		backend:     backend,
		collections: make(map[string]*LocalCollection),
		opts:        opts,
		logger:      log,
	}
}

// AddCollection registers name and returns its collection. Adding an existing
// name returns the registered collection; the stored records of a name
// survive process restarts and are visible as soon as it is added again.
func (db *LocalDB) AddCollection(name string) (*LocalCollection, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty collection name", models.ErrInvalidArgument)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if col, ok := db.collections[name]; ok {
		return col, nil
	}

	col := NewLocalCollection(name, db.backend, db.logger, db.opts...)
	db.collections[name] = col
	return col, nil
}

// RemoveCollection unregisters name and deletes all of its records,
// pending ones included.
func (db *LocalDB) RemoveCollection(ctx context.Context, name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.collections[name]; !ok {
		return fmt.Errorf("%w: %q", ErrCollectionNotFound, name)
	}

	if err := db.backend.DropCollection(ctx, name); err != nil {
		db.logger.Err(err).Str("func", "LocalDB.RemoveCollection").Str("collection", name).Msg("failed to drop collection")
		return err
	}
	delete(db.collections, name)
	return nil
}

// Collection returns the collection registered under name.
func (db *LocalDB) Collection(name string) (*LocalCollection, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	col, ok := db.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCollectionNotFound, name)
	}
	return col, nil
}

// CollectionNames returns the registered names in ascending order.
func (db *LocalDB) CollectionNames() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()

	names := make([]string, 0, len(db.collections))
	for name := range db.collections {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Close releases the backend.
func (db *LocalDB) Close() error {
	return db.backend.Close()
}
