package store

import (
	"database/sql"

	"github.com/MKhiriev/go-doc-keeper/internal/logger"
	"github.com/MKhiriev/go-doc-keeper/migrations"
)

// DB wraps a *sql.DB together with the dialect-specific helpers the
// repositories need.
type DB struct {
	*sql.DB
	errorClassificator ErrorClassificator
	logger             *logger.Logger
	dialect            string
}

const (
	dialectSQLite   = "sqlite3"
	dialectPostgres = "pgx"
)

// Migrate applies the schema that matches the connection's dialect.
func (db *DB) Migrate() error {
	if db.dialect == dialectPostgres {
		return migrations.MigratePostgres(db.DB)
	}
	return migrations.MigrateSQLite(db.DB)
}
