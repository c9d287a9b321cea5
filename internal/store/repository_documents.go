package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-doc-keeper/internal/logger"
	"github.com/MKhiriev/go-doc-keeper/models"
)

// documentRepository is the PostgreSQL-backed implementation of
// [DocumentRepository]. Documents live in the "documents" table as jsonb;
// revisions come from the document_revisions sequence.
//
// Every public method obtains a context-scoped logger via
// [logger.FromContext] so that all database interactions are traced with
// structured fields (collection, id).
type documentRepository struct {
	*DB
	logger *logger.Logger
	now    func() time.Time
}

// NewDocumentRepository constructs a [DocumentRepository] backed by db.
func NewDocumentRepository(db *DB, logger *logger.Logger) DocumentRepository {
	return &documentRepository{
		DB:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Get returns the stored copy of (col, id), including tombstones.
// A missing row yields [ErrDocumentNotFound].
func (p *documentRepository) Get(ctx context.Context, col, id string) (models.StoredDocument, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildGetDocumentQuery(col, id)
	if err != nil {
		log.Err(err).Str("func", "documentRepository.Get").Str("collection", col).Msg("failed to create query")
		return models.StoredDocument{}, storageFault(err)
	}

	var doc models.StoredDocument
	err = withRetry(ctx, p.errorClassificator, func() error {
		row := p.DB.QueryRowContext(ctx, query, args...)
		var scanErr error
		doc, scanErr = scanStoredDocument(row)
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.StoredDocument{}, ErrDocumentNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "documentRepository.Get").
			Str("collection", col).
			Str("id", id).
			Str("pg_code", postgresError(err)).
			Msg("failed to get document")
		return models.StoredDocument{}, storageFault(fmt.Errorf("%w: %w", ErrScanningRow, err))
	}

	return doc, nil
}

// List returns the live documents of col ordered by id.
func (p *documentRepository) List(ctx context.Context, col string) ([]models.StoredDocument, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildListDocumentsQuery(col)
	if err != nil {
		log.Err(err).Str("func", "documentRepository.List").Str("collection", col).Msg("failed to create query")
		return nil, storageFault(err)
	}

	var docs []models.StoredDocument
	err = withRetry(ctx, p.errorClassificator, func() error {
		var listErr error
		docs, listErr = p.list(ctx, query, args)
		return listErr
	})
	if err != nil {
		log.Err(err).
			Str("func", "documentRepository.List").
			Str("collection", col).
			Str("pg_code", postgresError(err)).
			Msg("failed to list documents")
		return nil, storageFault(err)
	}

	return docs, nil
}

func (p *documentRepository) list(ctx context.Context, query string, args []any) ([]models.StoredDocument, error) {
	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	docs := make([]models.StoredDocument, 0, 50)
	for rows.Next() {
		doc, scanErr := scanStoredDocument(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		docs = append(docs, doc)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}
	return docs, nil
}

// Put stores doc under the next revision and returns the stored copy with
// Rev and Doc[_rev] set.
func (p *documentRepository) Put(ctx context.Context, doc models.StoredDocument) (models.StoredDocument, error) {
	log := logger.FromContext(ctx)

	var stored models.StoredDocument
	err := withRetry(ctx, p.errorClassificator, func() error {
		var putErr error
		stored, putErr = p.put(ctx, doc)
		return putErr
	})
	if err != nil {
		log.Err(err).
			Str("func", "documentRepository.Put").
			Str("collection", doc.Collection).
			Str("id", doc.ID).
			Str("pg_code", postgresError(err)).
			Msg("failed to put document")
		return models.StoredDocument{}, storageFault(err)
	}

	return stored, nil
}

func (p *documentRepository) put(ctx context.Context, doc models.StoredDocument) (models.StoredDocument, error) {
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.StoredDocument{}, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err = tx.QueryRowContext(ctx, nextRevision).Scan(&doc.Rev); err != nil {
		return models.StoredDocument{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	doc.Doc = doc.Doc.Clone()
	if doc.Doc == nil {
		doc.Doc = models.Tombstone(doc.ID)
	}
	doc.Doc[models.RevField] = doc.Rev
	doc.UpdatedAt = p.now().UTC()

	payload, err := json.Marshal(doc.Doc)
	if err != nil {
		return models.StoredDocument{}, fmt.Errorf("%w: %w", ErrEncodingRecord, err)
	}

	query, args, err := buildPutDocumentQuery(doc, payload, doc.UpdatedAt)
	if err != nil {
		return models.StoredDocument{}, err
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return models.StoredDocument{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if err = tx.Commit(); err != nil {
		return models.StoredDocument{}, fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}
	return doc, nil
}

// Delete replaces (col, id) with a tombstone under a new revision. Writes to
// a tombstoned id are rejected by the service layer.
func (p *documentRepository) Delete(ctx context.Context, col, id, clientID string) error {
	_, err := p.Put(ctx, models.StoredDocument{
		Collection: col,
		ID:         id,
		Doc:        models.Tombstone(id),
		Deleted:    true,
		ClientID:   clientID,
	})
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStoredDocument(row rowScanner) (models.StoredDocument, error) {
	var (
		doc     models.StoredDocument
		payload []byte
	)
	if err := row.Scan(&doc.Collection, &doc.ID, &doc.Rev, &payload, &doc.Deleted, &doc.ClientID, &doc.UpdatedAt); err != nil {
		return models.StoredDocument{}, err
	}
	if err := json.Unmarshal(payload, &doc.Doc); err != nil {
		return models.StoredDocument{}, fmt.Errorf("%w: %w", ErrEncodingRecord, err)
	}
	return doc, nil
}
