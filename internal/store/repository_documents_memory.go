package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MKhiriev/go-doc-keeper/models"
)

// memoryDocumentRepository keeps server documents in process memory. It is
// used when the server runs without a database uri and in tests.
type memoryDocumentRepository struct {
	mu   sync.Mutex
	rev  int64
	docs map[string]map[string]models.StoredDocument
	now  func() time.Time
}

// NewMemoryDocumentRepository returns an empty in-memory [DocumentRepository].
func NewMemoryDocumentRepository() DocumentRepository {
	return &memoryDocumentRepository{
		docs: make(map[string]map[string]models.StoredDocument),
		now:  time.Now,
	}
}

func (m *memoryDocumentRepository) Get(_ context.Context, col, id string) (models.StoredDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[col][id]
	if !ok {
		return models.StoredDocument{}, ErrDocumentNotFound
	}
	doc.Doc = doc.Doc.Clone()
	return doc, nil
}

func (m *memoryDocumentRepository) List(_ context.Context, col string) ([]models.StoredDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := make([]models.StoredDocument, 0, len(m.docs[col]))
	for _, doc := range m.docs[col] {
		if doc.Deleted {
			continue
		}
		doc.Doc = doc.Doc.Clone()
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (m *memoryDocumentRepository) Put(_ context.Context, doc models.StoredDocument) (models.StoredDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rev++
	doc.Rev = m.rev
	doc.Doc = doc.Doc.Clone()
	if doc.Doc == nil {
		doc.Doc = models.Tombstone(doc.ID)
	}
	doc.Doc[models.RevField] = doc.Rev
	doc.UpdatedAt = m.now().UTC()

	col, ok := m.docs[doc.Collection]
	if !ok {
		col = make(map[string]models.StoredDocument)
		m.docs[doc.Collection] = col
	}
	col[doc.ID] = doc

	out := doc
	out.Doc = doc.Doc.Clone()
	return out, nil
}

func (m *memoryDocumentRepository) Delete(ctx context.Context, col, id, clientID string) error {
	_, err := m.Put(ctx, models.StoredDocument{
		Collection: col,
		ID:         id,
		Doc:        models.Tombstone(id),
		Deleted:    true,
		ClientID:   clientID,
	})
	return err
}
