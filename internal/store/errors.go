package store

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/go-doc-keeper/models"
)

// Sentinel errors returned by the local store and the server repositories.
// Callers should use [errors.Is] to match against these values.
var (
	// ErrCollectionNotFound is returned by [LocalDB.Collection] for a name that
	// was never added.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrDocumentNotFound is returned by the server repositories when no live
	// or deleted row exists for (collection, id). It matches [models.ErrNotFound].
	ErrDocumentNotFound = fmt.Errorf("%w: document was not found", models.ErrNotFound)

	// ErrUnknownBackend is returned by [NewBackend] for an unsupported
	// backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// Low-level database operation errors. These are returned (or wrapped) by
// backends and repositories when an operation fails before any domain logic
// can be applied. All of them are wrapped together with
// [models.ErrStorageFault] on the way out of the package.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the driver cannot start a new
	// transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning a single result row fails.
	ErrScanningRow = errors.New("failed to scan document row")

	// ErrScanningRows is returned when iterating a result set fails.
	ErrScanningRows = errors.New("failed to scan document rows")

	// ErrEncodingRecord is returned when a record cannot be converted to or
	// from its stored JSON form.
	ErrEncodingRecord = errors.New("failed to encode document record")
)

// storageFault tags err as a local storage failure.
func storageFault(err error) error {
	if err == nil || errors.Is(err, models.ErrStorageFault) {
		return err
	}
	return fmt.Errorf("%w: %w", models.ErrStorageFault, err)
}
