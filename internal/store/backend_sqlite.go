package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/MKhiriev/go-doc-keeper/internal/logger"
	"github.com/MKhiriev/go-doc-keeper/models"
)

// sqliteBackend keeps records in the docs table; doc and base are stored as
// JSON text.
type sqliteBackend struct {
	*DB
}

type sqliteRow struct {
	col   string
	id    string
	state string
	doc   string
	base  sql.NullString
}

// NewSQLiteBackend opens the sqlite file at dsn and applies the local schema.
func NewSQLiteBackend(ctx context.Context, dsn string, log *logger.Logger) (Backend, error) {
	db, err := NewConnectSQLite(ctx, dsn, log)
	if err != nil {
		return nil, storageFault(err)
	}

	if err = db.Migrate(); err != nil {
		_ = db.Close()
		return nil, storageFault(fmt.Errorf("migration failed: %w", err))
	}

	return &sqliteBackend{DB: db}, nil
}

func newSQLiteBackendFromDB(db *DB) Backend {
	return &sqliteBackend{DB: db}
}

func (s *sqliteBackend) Get(ctx context.Context, col, id string) (models.Record, bool, error) {
	records, err := s.GetBatch(ctx, col, []string{id})
	if err != nil {
		return models.Record{}, false, err
	}
	rec, ok := records[id]
	return rec, ok, nil
}

func (s *sqliteBackend) GetBatch(ctx context.Context, col string, ids []string) (map[string]models.Record, error) {
	out := make(map[string]models.Record, len(ids))
	for start := 0; start < len(ids); start += docsBatchMax {
		end := min(start+docsBatchMax, len(ids))

		records, err := s.query(ctx, "sqliteBackend.GetBatch", col, ids[start:end], "")
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			out[rec.ID] = rec
		}
	}
	return out, nil
}

func (s *sqliteBackend) PutBatch(ctx context.Context, records []models.Record) error {
	log := logger.FromContext(ctx)

	if len(records) == 0 {
		return nil
	}

	rows := make([]sqliteRow, 0, len(records))
	for _, rec := range records {
		row, err := toSQLiteRow(rec)
		if err != nil {
			return storageFault(err)
		}
		rows = append(rows, row)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "sqliteBackend.PutBatch").Msg("failed to begin transaction")
		return storageFault(fmt.Errorf("%w: %w", ErrBeginningTransaction, err))
	}
	defer tx.Rollback() //nolint:errcheck

	for start := 0; start < len(rows); start += docsBatchMax {
		end := min(start+docsBatchMax, len(rows))

		query, args, err := buildUpsertRecordsQuery(rows[start:end])
		if err != nil {
			return storageFault(err)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			log.Err(err).
				Str("func", "sqliteBackend.PutBatch").
				Int("records", end-start).
				Msg("failed to write records")
			return storageFault(fmt.Errorf("%w: %w", ErrExecutingStatement, err))
		}
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("func", "sqliteBackend.PutBatch").Msg("failed to commit transaction")
		return storageFault(fmt.Errorf("%w: %w", ErrCommitingTransaction, err))
	}
	return nil
}

func (s *sqliteBackend) RemoveBatch(ctx context.Context, col string, ids []string) error {
	for start := 0; start < len(ids); start += docsBatchMax {
		end := min(start+docsBatchMax, len(ids))
		if err := s.delete(ctx, "sqliteBackend.RemoveBatch", col, ids[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqliteBackend) QueryCollection(ctx context.Context, col string) ([]models.Record, error) {
	return s.query(ctx, "sqliteBackend.QueryCollection", col, nil, "")
}

func (s *sqliteBackend) QueryState(ctx context.Context, col string, state models.State) ([]models.Record, error) {
	return s.query(ctx, "sqliteBackend.QueryState", col, nil, state)
}

func (s *sqliteBackend) DropCollection(ctx context.Context, col string) error {
	return s.delete(ctx, "sqliteBackend.DropCollection", col, nil)
}

func (s *sqliteBackend) Close() error {
	return s.DB.Close()
}

func (s *sqliteBackend) query(ctx context.Context, fn, col string, ids []string, state models.State) ([]models.Record, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildSelectRecordsQuery(col, ids, state)
	if err != nil {
		log.Err(err).Str("func", fn).Str("collection", col).Msg("failed to create query")
		return nil, storageFault(err)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", fn).Str("collection", col).Msg("failed to execute query for records")
		return nil, storageFault(fmt.Errorf("%w: %w", ErrExecutingQuery, err))
	}
	defer rows.Close()

	records := make([]models.Record, 0, len(ids))
	for rows.Next() {
		var row sqliteRow
		if err = rows.Scan(&row.col, &row.id, &row.state, &row.doc, &row.base); err != nil {
			log.Err(err).Str("func", fn).Str("collection", col).Msg("failed to scan record row")
			return nil, storageFault(fmt.Errorf("%w: %w", ErrScanningRow, err))
		}

		rec, err := row.record()
		if err != nil {
			log.Err(err).Str("func", fn).Str("collection", col).Str("id", row.id).Msg("failed to decode record")
			return nil, storageFault(err)
		}
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		log.Err(err).Str("func", fn).Str("collection", col).Msg("error occurred during rows iteration")
		return nil, storageFault(fmt.Errorf("%w: %w", ErrScanningRows, err))
	}

	return records, nil
}

func (s *sqliteBackend) delete(ctx context.Context, fn, col string, ids []string) error {
	log := logger.FromContext(ctx)

	query, args, err := buildDeleteRecordsQuery(col, ids)
	if err != nil {
		return storageFault(err)
	}

	if _, err = s.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", fn).Str("collection", col).Int("ids", len(ids)).Msg("failed to delete records")
		return storageFault(fmt.Errorf("%w: %w", ErrExecutingStatement, err))
	}
	return nil
}

func toSQLiteRow(rec models.Record) (sqliteRow, error) {
	doc, err := json.Marshal(rec.Doc)
	if err != nil {
		return sqliteRow{}, fmt.Errorf("%w: %w", ErrEncodingRecord, err)
	}

	row := sqliteRow{
		col:   rec.Collection,
		id:    rec.ID,
		state: string(rec.State),
		doc:   string(doc),
	}
	if rec.Base != nil {
		base, err := json.Marshal(rec.Base)
		if err != nil {
			return sqliteRow{}, fmt.Errorf("%w: %w", ErrEncodingRecord, err)
		}
		row.base = sql.NullString{String: string(base), Valid: true}
	}
	return row, nil
}

func (r sqliteRow) record() (models.Record, error) {
	rec := models.Record{
		Collection: r.col,
		ID:         r.id,
		State:      models.State(r.state),
	}
	if err := json.Unmarshal([]byte(r.doc), &rec.Doc); err != nil {
		return models.Record{}, fmt.Errorf("%w: %w", ErrEncodingRecord, err)
	}
	if r.base.Valid {
		if err := json.Unmarshal([]byte(r.base.String), &rec.Base); err != nil {
			return models.Record{}, fmt.Errorf("%w: %w", ErrEncodingRecord, err)
		}
	}
	return rec, nil
}
