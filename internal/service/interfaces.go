package service

import (
	"context"

	"github.com/MKhiriev/go-doc-keeper/internal/store"
	"github.com/MKhiriev/go-doc-keeper/models"
)

// LocalCollection is the local half of a hybrid collection.
// *store.LocalCollection implements it.
type LocalCollection interface {
	Name() string
	Evaluator() store.Evaluator

	Find(ctx context.Context, sel models.Selector, opts models.FindOptions) ([]models.Document, models.Count, error)
	FindOne(ctx context.Context, sel models.Selector, opts models.FindOptions) (models.Document, error)

	Upsert(ctx context.Context, docs []models.Document, bases []models.Document) ([]models.Document, error)
	Remove(ctx context.Context, id string) error

	Cache(ctx context.Context, docs []models.Document, sel models.Selector, opts models.FindOptions) error
	CacheOne(ctx context.Context, doc models.Document) error
	Seed(ctx context.Context, docs []models.Document) error

	PendingUpserts(ctx context.Context) ([]models.PendingUpsert, error)
	PendingRemoves(ctx context.Context) ([]string, error)
	ResolveUpserts(ctx context.Context, upserts []models.PendingUpsert) error
	ResolveRemove(ctx context.Context, id string) error
}

// DocumentService is the authoritative side of the wire protocol served by
// the document server. Writes need a non-empty clientID.
type DocumentService interface {
	Find(ctx context.Context, col string, sel models.Selector, opts models.FindOptions) ([]models.Document, int, error)
	Quickfind(ctx context.Context, col string, sel models.Selector, opts models.FindOptions, digests map[string]string) (models.QuickfindResponse, int, error)

	Insert(ctx context.Context, col string, doc models.Document, clientID string) (models.Document, error)
	Patch(ctx context.Context, col string, doc, base models.Document, clientID string) (models.Document, error)
	Remove(ctx context.Context, col, id, clientID string) error
}

// DocumentServiceWrapper defines middleware composition for DocumentService.
// Implementations wrap an existing DocumentService to add behavior such as
// validation.
type DocumentServiceWrapper interface {
	Wrap(DocumentService) DocumentService
}

type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
}

// TokenService mints and verifies client tokens.
type TokenService interface {
	CreateToken(ctx context.Context, clientID string) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}
