package service

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/MKhiriev/go-doc-keeper/internal/adapter"
	"github.com/MKhiriev/go-doc-keeper/internal/logger"
	"github.com/MKhiriev/go-doc-keeper/internal/metrics"
	"github.com/MKhiriev/go-doc-keeper/internal/store"
	"github.com/MKhiriev/go-doc-keeper/models"
)

// HybridDB is a named set of hybrid collections sharing default options.
type HybridDB struct {
	options models.HybridOptions

	mu          sync.RWMutex
	collections map[string]*HybridCollection

	// uploadMu keeps two uploads from draining the same pending records.
	uploadMu sync.Mutex

	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewHybridDB returns an empty database whose collections default to options.
func NewHybridDB(options models.HybridOptions, m *metrics.Metrics, logger *logger.Logger) *HybridDB {
	return &HybridDB{
		options:     options,
		collections: make(map[string]*HybridCollection),
		metrics:     m,
		logger:      logger,
	}
}

// AddCollection registers local and remote under local's name, replacing any
// collection of that name. overrides adjust the database defaults for this
// collection only.
func (db *HybridDB) AddCollection(local LocalCollection, remote adapter.RemoteCollection, overrides ...models.HybridOption) (*HybridCollection, error) {
	if local == nil || remote == nil {
		return nil, fmt.Errorf("%w: hybrid collection needs a local and a remote side", models.ErrInvalidArgument)
	}
	if local.Name() == "" {
		return nil, fmt.Errorf("%w: empty collection name", models.ErrInvalidArgument)
	}

	col := NewHybridCollection(local, remote, db.options.Apply(overrides...), db.metrics, db.logger)

	db.mu.Lock()
	db.collections[col.Name()] = col
	db.mu.Unlock()
	return col, nil
}

// Mount opens name in both localDB and remoteDB and registers the pair.
func (db *HybridDB) Mount(localDB *store.LocalDB, remoteDB adapter.RemoteDB, name string, overrides ...models.HybridOption) (*HybridCollection, error) {
	local, err := localDB.AddCollection(name)
	if err != nil {
		return nil, err
	}
	return db.AddCollection(local, remoteDB.Collection(name), overrides...)
}

// RemoveCollection unregisters name. Local and remote data are untouched.
func (db *HybridDB) RemoveCollection(name string) {
	db.mu.Lock()
	delete(db.collections, name)
	db.mu.Unlock()
}

// Collection returns the collection registered under name or
// ErrCollectionNotFound.
func (db *HybridDB) Collection(name string) (*HybridCollection, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	col, ok := db.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return col, nil
}

// CollectionNames returns the registered names in ascending order.
func (db *HybridDB) CollectionNames() []string {
	db.mu.RLock()
	names := make([]string, 0, len(db.collections))
	for name := range db.collections {
		names = append(names, name)
	}
	db.mu.RUnlock()

	slices.Sort(names)
	return names
}

// Upload uploads every collection in name order and stops at the first
// failing one.
func (db *HybridDB) Upload(ctx context.Context) error {
	db.uploadMu.Lock()
	defer db.uploadMu.Unlock()

	for _, name := range db.CollectionNames() {
		col, err := db.Collection(name)
		if err != nil {
			// removed while uploading
			continue
		}
		if err = col.Upload(ctx); err != nil {
			db.logger.Err(err).Str("func", "HybridDB.Upload").Str("collection", name).Msg("upload stopped")
			return fmt.Errorf("upload collection %s: %w", name, err)
		}
	}
	return nil
}
