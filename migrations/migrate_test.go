// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package migrations

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigratePostgres_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	_ = mock // no expectations: goose's first query fails

	err = MigratePostgres(db)
	if err == nil {
		t.Fatal("expected error from MigratePostgres, got nil")
	}

	if !strings.Contains(err.Error(), "migration error") {
		t.Errorf("expected wrapped migration error, got: %v", err)
	}
}

func TestMigrate_NilDB(t *testing.T) {
	var db *sql.DB

	for _, migrate := range []func(*sql.DB) error{MigrateSQLite, MigratePostgres} {
		err := migrate(db)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db is nil")
	}
}

func TestMigrateSQLite_CreatesDocsTable(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, MigrateSQLite(db))
	// idempotent
	require.NoError(t, MigrateSQLite(db))

	_, err = db.Exec(`INSERT INTO docs (col, id, state, doc, base) VALUES ('c', '1', 'cached', '{}', NULL)`)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM docs WHERE col = 'c' AND state = 'cached'`).Scan(&count))
	assert.Equal(t, 1, count)
}
