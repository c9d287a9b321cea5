package store

import (
	"context"
	"sort"
	"sync"

	"github.com/MKhiriev/go-doc-keeper/models"
)

// memoryBackend keeps records in process maps. Records are deep-copied on
// the way in and out so callers never share documents with the store.
type memoryBackend struct {
	mu    sync.RWMutex
	items map[string]map[string]models.Record
}

// NewMemoryBackend returns an empty in-process backend.
func NewMemoryBackend() Backend {
	return &memoryBackend{items: make(map[string]map[string]models.Record)}
}

func (m *memoryBackend) Get(_ context.Context, col, id string) (models.Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.items[col][id]
	if !ok {
		return models.Record{}, false, nil
	}
	return cloneRecord(rec), true, nil
}

func (m *memoryBackend) GetBatch(_ context.Context, col string, ids []string) (map[string]models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]models.Record, len(ids))
	for _, id := range ids {
		if rec, ok := m.items[col][id]; ok {
			out[id] = cloneRecord(rec)
		}
	}
	return out, nil
}

func (m *memoryBackend) PutBatch(_ context.Context, records []models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range records {
		col, ok := m.items[rec.Collection]
		if !ok {
			col = make(map[string]models.Record)
			m.items[rec.Collection] = col
		}
		col[rec.ID] = cloneRecord(rec)
	}
	return nil
}

func (m *memoryBackend) RemoveBatch(_ context.Context, col string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		delete(m.items[col], id)
	}
	return nil
}

func (m *memoryBackend) QueryCollection(_ context.Context, col string) ([]models.Record, error) {
	return m.scan(col, ""), nil
}

func (m *memoryBackend) QueryState(_ context.Context, col string, state models.State) ([]models.Record, error) {
	return m.scan(col, state), nil
}

func (m *memoryBackend) DropCollection(_ context.Context, col string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, col)
	return nil
}

func (m *memoryBackend) Close() error {
	return nil
}

// scan returns the records of col sorted by id, matching the order of the
// persistent backends.
func (m *memoryBackend) scan(col string, state models.State) []models.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]models.Record, 0, len(m.items[col]))
	for _, rec := range m.items[col] {
		if state == "" || rec.State == state {
			records = append(records, cloneRecord(rec))
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records
}

func cloneRecord(rec models.Record) models.Record {
	rec.Doc = rec.Doc.Clone()
	rec.Base = rec.Base.Clone()
	return rec
}
