package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/MKhiriev/go-doc-keeper/internal/logger"
	"github.com/MKhiriev/go-doc-keeper/models"
)

// boltBackend keeps one bucket per collection; values are JSON records keyed
// by document id.
type boltBackend struct {
	db *bolt.DB
}

type boltRecord struct {
	State models.State    `json:"state"`
	Doc   models.Document `json:"doc"`
	Base  models.Document `json:"base,omitempty"`
}

// NewBoltBackend opens (creating when needed) the bolt file at path.
func NewBoltBackend(path string, log *logger.Logger) (Backend, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Err(err).Str("func", "NewBoltBackend").Msg("error creating database dir")
			return nil, storageFault(fmt.Errorf("error creating bolt dir: %w", err))
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		log.Err(err).Str("func", "NewBoltBackend").Str("path", path).Msg("error opening bolt database")
		return nil, storageFault(fmt.Errorf("error opening bolt database: %w", err))
	}
	log.Debug().Str("func", "NewBoltBackend").Str("path", path).Msg("opened bolt database successfully")

	return &boltBackend{db: db}, nil
}

func (b *boltBackend) Get(ctx context.Context, col, id string) (models.Record, bool, error) {
	records, err := b.GetBatch(ctx, col, []string{id})
	if err != nil {
		return models.Record{}, false, err
	}
	rec, ok := records[id]
	return rec, ok, nil
}

func (b *boltBackend) GetBatch(ctx context.Context, col string, ids []string) (map[string]models.Record, error) {
	out := make(map[string]models.Record, len(ids))

	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(col))
		if bucket == nil {
			return nil
		}
		for _, id := range ids {
			value := bucket.Get([]byte(id))
			if value == nil {
				continue
			}
			rec, err := decodeBoltRecord(col, id, value)
			if err != nil {
				return err
			}
			out[id] = rec
		}
		return nil
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "boltBackend.GetBatch").Str("collection", col).Msg("failed to read records")
		return nil, storageFault(err)
	}
	return out, nil
}

func (b *boltBackend) PutBatch(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		for _, rec := range records {
			bucket, err := tx.CreateBucketIfNotExists([]byte(rec.Collection))
			if err != nil {
				return err
			}

			value, err := json.Marshal(boltRecord{State: rec.State, Doc: rec.Doc, Base: rec.Base})
			if err != nil {
				return fmt.Errorf("%w: %w", ErrEncodingRecord, err)
			}
			if err = bucket.Put([]byte(rec.ID), value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "boltBackend.PutBatch").Int("records", len(records)).Msg("failed to write records")
		return storageFault(err)
	}
	return nil
}

func (b *boltBackend) RemoveBatch(ctx context.Context, col string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(col))
		if bucket == nil {
			return nil
		}
		for _, id := range ids {
			if err := bucket.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "boltBackend.RemoveBatch").Str("collection", col).Msg("failed to delete records")
		return storageFault(err)
	}
	return nil
}

func (b *boltBackend) QueryCollection(ctx context.Context, col string) ([]models.Record, error) {
	return b.scan(ctx, "boltBackend.QueryCollection", col, "")
}

func (b *boltBackend) QueryState(ctx context.Context, col string, state models.State) ([]models.Record, error) {
	return b.scan(ctx, "boltBackend.QueryState", col, state)
}

func (b *boltBackend) DropCollection(ctx context.Context, col string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(col)) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(col))
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "boltBackend.DropCollection").Str("collection", col).Msg("failed to drop bucket")
		return storageFault(err)
	}
	return nil
}

func (b *boltBackend) Close() error {
	return b.db.Close()
}

// scan walks the bucket in key order, so results are sorted by id.
func (b *boltBackend) scan(ctx context.Context, fn, col string, state models.State) ([]models.Record, error) {
	var records []models.Record

	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(col))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			rec, err := decodeBoltRecord(col, string(k), v)
			if err != nil {
				return err
			}
			if state == "" || rec.State == state {
				records = append(records, rec)
			}
			return nil
		})
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", fn).Str("collection", col).Msg("failed to scan records")
		return nil, storageFault(err)
	}
	return records, nil
}

func decodeBoltRecord(col, id string, value []byte) (models.Record, error) {
	var stored boltRecord
	if err := json.Unmarshal(value, &stored); err != nil {
		return models.Record{}, fmt.Errorf("%w: %w", ErrEncodingRecord, err)
	}
	return models.Record{
		Collection: col,
		ID:         id,
		State:      stored.State,
		Doc:        stored.Doc,
		Base:       stored.Base,
	}, nil
}
