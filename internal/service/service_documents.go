package service

import (
	"context"
	"errors"

	"github.com/MKhiriev/go-doc-keeper/internal/logger"
	"github.com/MKhiriev/go-doc-keeper/internal/quickfind"
	"github.com/MKhiriev/go-doc-keeper/internal/selector"
	"github.com/MKhiriev/go-doc-keeper/internal/store"
	"github.com/MKhiriev/go-doc-keeper/internal/utils"
	"github.com/MKhiriev/go-doc-keeper/models"
)

// documentService is the concrete implementation of DocumentService.
// Queries run in memory over the live documents of a collection; every write
// goes through the repository, which assigns the next revision.
type documentService struct {
	repo store.DocumentRepository
	eval *selector.Evaluator
	ids  store.IDGenerator

	logger *logger.Logger
}

// NewDocumentService constructs a DocumentService over repo.
func NewDocumentService(repo store.DocumentRepository, logger *logger.Logger) DocumentService {
	return &documentService{
		repo:   repo,
		eval:   selector.New(selector.DefaultCacheSize),
		ids:    utils.NewUUIDGenerator(),
		logger: logger,
	}
}

func (s *documentService) Find(ctx context.Context, col string, sel models.Selector, opts models.FindOptions) ([]models.Document, int, error) {
	stored, err := s.repo.List(ctx, col)
	if err != nil {
		s.logger.Err(err).Str("func", "documentService.Find").Str("collection", col).Msg("failed to list documents")
		return nil, 0, err
	}

	docs := make([]models.Document, 0, len(stored))
	for _, doc := range stored {
		docs = append(docs, doc.Doc)
	}
	return s.eval.Process(docs, sel, opts)
}

// Quickfind answers a find with only the shards whose digests differ from
// the client's.
func (s *documentService) Quickfind(ctx context.Context, col string, sel models.Selector, opts models.FindOptions, digests map[string]string) (models.QuickfindResponse, int, error) {
	docs, count, err := s.Find(ctx, col, sel, opts)
	if err != nil {
		return nil, 0, err
	}
	return quickfind.EncodeResponse(docs, digests), count, nil
}

// Insert stores doc, replacing any live document with the same id. Documents
// without an id get a fresh one.
func (s *documentService) Insert(ctx context.Context, col string, doc models.Document, clientID string) (models.Document, error) {
	if clientID == "" {
		return nil, ErrClientRequired
	}

	doc = doc.Clone()
	if doc.ID() == "" {
		doc.SetID(s.ids.Generate())
	}
	if _, err := s.live(ctx, col, doc.ID()); err != nil {
		return nil, err
	}

	return s.put(ctx, col, doc, clientID)
}

// Patch applies the changes between base and doc on top of the stored
// document. A field changed on both sides takes the value of doc; a field
// present in base and missing from doc is deleted. Without a stored document
// or a base, doc is stored as is.
func (s *documentService) Patch(ctx context.Context, col string, doc, base models.Document, clientID string) (models.Document, error) {
	if clientID == "" {
		return nil, ErrClientRequired
	}

	current, err := s.live(ctx, col, doc.ID())
	if err != nil {
		return nil, err
	}

	merged := doc.Clone()
	if current != nil && base != nil {
		merged = mergeThreeWay(current, base, doc)
	}
	return s.put(ctx, col, merged, clientID)
}

func (s *documentService) Remove(ctx context.Context, col, id, clientID string) error {
	if clientID == "" {
		return ErrClientRequired
	}
	if _, err := s.live(ctx, col, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, col, id, clientID); err != nil {
		s.logger.Err(err).Str("func", "documentService.Remove").Str("collection", col).Str("id", id).Msg("failed to delete document")
		return err
	}
	return nil
}

// live returns the stored document of id, nil if there is none, and
// ErrDocumentGone if it was deleted.
func (s *documentService) live(ctx context.Context, col, id string) (models.Document, error) {
	stored, err := s.repo.Get(ctx, col, id)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return nil, nil
	case err != nil:
		s.logger.Err(err).Str("func", "documentService.live").Str("collection", col).Str("id", id).Msg("failed to load document")
		return nil, err
	case stored.Deleted:
		return nil, ErrDocumentGone
	}
	return stored.Doc, nil
}

func (s *documentService) put(ctx context.Context, col string, doc models.Document, clientID string) (models.Document, error) {
	stored, err := s.repo.Put(ctx, models.StoredDocument{
		Collection: col,
		ID:         doc.ID(),
		Doc:        doc,
		ClientID:   clientID,
	})
	if err != nil {
		s.logger.Err(err).Str("func", "documentService.put").Str("collection", col).Str("id", doc.ID()).Msg("failed to store document")
		return nil, err
	}
	return stored.Doc, nil
}

func mergeThreeWay(current, base, doc models.Document) models.Document {
	merged := current.Clone()
	for key, value := range doc {
		if key == models.RevField {
			continue
		}
		if baseValue, ok := base[key]; ok && sameValue(value, baseValue) {
			continue
		}
		merged[key] = models.Document{key: value}.Clone()[key]
	}
	for key := range base {
		if key == models.RevField || key == models.IDField {
			continue
		}
		if _, ok := doc[key]; !ok {
			delete(merged, key)
		}
	}
	return merged
}

func sameValue(a, b any) bool {
	return models.Document{"v": a}.Equal(models.Document{"v": b})
}
