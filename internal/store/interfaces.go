package store

import (
	"context"

	"github.com/MKhiriev/go-doc-keeper/internal/selector"
	"github.com/MKhiriev/go-doc-keeper/models"
)

// Backend is the physical storage of local records. Implementations store
// records verbatim and know nothing about state transitions; all policy
// lives in [LocalCollection].
//
// A missing record is not an error: Get reports ok == false and GetBatch
// simply omits the id.
type Backend interface {
	Get(ctx context.Context, col, id string) (models.Record, bool, error)
	GetBatch(ctx context.Context, col string, ids []string) (map[string]models.Record, error)
	PutBatch(ctx context.Context, records []models.Record) error
	RemoveBatch(ctx context.Context, col string, ids []string) error
	QueryCollection(ctx context.Context, col string) ([]models.Record, error)
	QueryState(ctx context.Context, col string, state models.State) ([]models.Record, error)
	DropCollection(ctx context.Context, col string) error
	Close() error
}

// Evaluator compiles selectors and sorts and runs the full
// filter/sort/page/project pipeline over in-memory documents.
type Evaluator interface {
	Compile(sel models.Selector) (selector.Matcher, error)
	CompileSort(sort models.Sort) selector.Comparator
	Process(docs []models.Document, sel models.Selector, opts models.FindOptions) ([]models.Document, int, error)
}

// IDGenerator produces fresh document ids for upserts that lack one.
type IDGenerator interface {
	Generate() string
}

//go:generate mockgen -destination=../mock/document_repository_mock.go -package=mock github.com/MKhiriev/go-doc-keeper/internal/store DocumentRepository

// DocumentRepository is the server-side document table. Put assigns the
// next revision and returns the stored copy.
type DocumentRepository interface {
	Get(ctx context.Context, col, id string) (models.StoredDocument, error)
	List(ctx context.Context, col string) ([]models.StoredDocument, error)
	Put(ctx context.Context, doc models.StoredDocument) (models.StoredDocument, error)
	Delete(ctx context.Context, col, id, clientID string) error
}

// ErrorClassificator decides whether a failed database operation is worth
// retrying.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}
