package store

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-doc-keeper/models"
)

// local sqlite table
const (
	docsTable    = "docs"
	docsBatchMax = 150
)

var docsColumns = []string{"col", "id", "state", "doc", "base"}

// server postgres table
const (
	documentsTable = "documents"
	nextRevision   = `SELECT nextval('document_revisions')`
)

var documentsColumns = []string{"collection", "id", "rev", "doc", "deleted", "client_id", "updated_at"}

var pg = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// buildSelectRecordsQuery selects the records of col, optionally narrowed to
// ids and/or one state.
func buildSelectRecordsQuery(col string, ids []string, state models.State) (string, []any, error) {
	where := sq.Eq{"col": col}
	if ids != nil {
		where["id"] = ids
	}
	if state != "" {
		where["state"] = string(state)
	}

	query, args, err := sq.Select(docsColumns...).
		From(docsTable).
		Where(where).
		OrderBy("id").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

// buildUpsertRecordsQuery writes rows in one statement, replacing existing
// (col, id) rows.
func buildUpsertRecordsQuery(rows []sqliteRow) (string, []any, error) {
	builder := sq.Insert(docsTable).Columns(docsColumns...)
	for _, row := range rows {
		builder = builder.Values(row.col, row.id, row.state, row.doc, row.base)
	}

	query, args, err := builder.
		Suffix("ON CONFLICT (col, id) DO UPDATE SET state = excluded.state, doc = excluded.doc, base = excluded.base").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

// buildDeleteRecordsQuery deletes the given ids of col, or the whole
// collection when ids is nil.
func buildDeleteRecordsQuery(col string, ids []string) (string, []any, error) {
	where := sq.Eq{"col": col}
	if ids != nil {
		where["id"] = ids
	}

	query, args, err := sq.Delete(docsTable).Where(where).ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

// buildGetDocumentQuery selects one server document, deleted or not.
func buildGetDocumentQuery(col, id string) (string, []any, error) {
	query, args, err := pg.Select(documentsColumns...).
		From(documentsTable).
		Where(sq.Eq{"collection": col, "id": id}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

// buildListDocumentsQuery selects the live documents of col ordered by id.
func buildListDocumentsQuery(col string) (string, []any, error) {
	query, args, err := pg.Select(documentsColumns...).
		From(documentsTable).
		Where(sq.Eq{"collection": col, "deleted": false}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

// buildPutDocumentQuery inserts or replaces one server document.
func buildPutDocumentQuery(doc models.StoredDocument, payload []byte, updatedAt time.Time) (string, []any, error) {
	query, args, err := pg.Insert(documentsTable).
		Columns(documentsColumns...).
		Values(doc.Collection, doc.ID, doc.Rev, payload, doc.Deleted, doc.ClientID, updatedAt).
		Suffix("ON CONFLICT (collection, id) DO UPDATE SET " +
			"rev = EXCLUDED.rev, doc = EXCLUDED.doc, deleted = EXCLUDED.deleted, " +
			"client_id = EXCLUDED.client_id, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}
