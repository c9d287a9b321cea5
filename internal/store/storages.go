package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-doc-keeper/internal/config"
	"github.com/MKhiriev/go-doc-keeper/internal/logger"
)

// NewBackend opens the local backend selected by cfg.Backend. The sqlite
// backend creates its file and applies pending migrations.
func NewBackend(ctx context.Context, cfg config.ClientStorage, log *logger.Logger) (Backend, error) {
	log.Info().Str("backend", cfg.Backend).Msg("creating local backend...")

	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryBackend(), nil
	case config.BackendSQLite, "":
		backend, err := NewSQLiteBackend(ctx, cfg.DSN, log)
		if err != nil {
			return nil, fmt.Errorf("sqlite backend: %w", err)
		}
		return backend, nil
	case config.BackendBolt:
		backend, err := NewBoltBackend(cfg.BoltPath, log)
		if err != nil {
			return nil, fmt.Errorf("bolt backend: %w", err)
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// Storages groups the repositories of the document server.
type Storages struct {
	Documents DocumentRepository

	db *DB
}

// NewStorages connects the document server to Postgres at dsn and applies
// its migrations. An empty dsn selects the in-memory repository.
func NewStorages(ctx context.Context, dsn string, log *logger.Logger) (*Storages, error) {
	log.Info().Msg("creating new storages...")

	if dsn == "" {
		log.Warn().Msg("no database uri configured, documents are kept in memory")
		return &Storages{Documents: NewMemoryDocumentRepository()}, nil
	}

	db, err := NewConnectPostgres(ctx, dsn, log)
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}

	if err = db.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Storages{
		Documents: NewDocumentRepository(db, log),
		db:        db,
	}, nil
}

// Close releases the database connection, if any.
func (s *Storages) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
