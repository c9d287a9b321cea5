package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/fishy/errbatch"

	"github.com/MKhiriev/go-doc-keeper/internal/logger"
	"github.com/MKhiriev/go-doc-keeper/internal/store"
	"github.com/MKhiriev/go-doc-keeper/models"
)

// CloneLocalCollection copies from into to. Cached documents are seeded,
// pending upserts are replayed with their bases, then pending removes are
// replayed.
func CloneLocalCollection(ctx context.Context, from, to LocalCollection) error {
	upserts, err := from.PendingUpserts(ctx)
	if err != nil {
		return err
	}
	pending := make(map[string]struct{}, len(upserts))
	for _, upsert := range upserts {
		pending[upsert.Doc.ID()] = struct{}{}
	}

	docs, _, err := from.Find(ctx, nil, models.FindOptions{})
	if err != nil {
		return err
	}
	cached := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		if _, ok := pending[doc.ID()]; !ok {
			cached = append(cached, doc)
		}
	}
	if err = to.Seed(ctx, cached); err != nil {
		return fmt.Errorf("seed %s: %w", to.Name(), err)
	}

	if len(upserts) > 0 {
		pendingDocs := make([]models.Document, 0, len(upserts))
		bases := make([]models.Document, 0, len(upserts))
		for _, upsert := range upserts {
			pendingDocs = append(pendingDocs, upsert.Doc)
			bases = append(bases, upsert.Base)
		}
		if _, err = to.Upsert(ctx, pendingDocs, bases); err != nil {
			return fmt.Errorf("replay upserts into %s: %w", to.Name(), err)
		}
	}

	removes, err := from.PendingRemoves(ctx)
	if err != nil {
		return err
	}
	for _, id := range removes {
		if err = to.Remove(ctx, id); err != nil {
			return fmt.Errorf("replay remove %s into %s: %w", id, to.Name(), err)
		}
	}
	return nil
}

// CloneLocalDB clones every collection of from into to, creating missing
// collections. Collections are cloned concurrently; every failure is
// reported.
func CloneLocalDB(ctx context.Context, from, to *store.LocalDB) error {
	type pair struct {
		from, to *store.LocalCollection
	}

	names := from.CollectionNames()
	pairs := make([]pair, 0, len(names))
	for _, name := range names {
		fromCol, err := from.Collection(name)
		if err != nil {
			return err
		}
		toCol, err := to.AddCollection(name)
		if err != nil {
			return err
		}
		pairs = append(pairs, pair{from: fromCol, to: toCol})
	}

	errChan := make(chan error, len(pairs))
	var wg sync.WaitGroup
	wg.Add(len(pairs))
	for _, p := range pairs {
		go func() {
			defer wg.Done()
			errChan <- CloneLocalCollection(ctx, p.from, p.to)
		}()
	}
	wg.Wait()
	close(errChan)

	var batch errbatch.ErrBatch
	for err := range errChan {
		batch.Add(err)
	}
	return batch.Compile()
}

// MigrateLocalDB uploads the pending writes of from into the collections of
// to that share a name with them. Uploaded writes become pending writes of
// to and settle in from exactly as a remote upload would.
func MigrateLocalDB(ctx context.Context, from, to *store.LocalDB, log *logger.Logger) error {
	hybrid := NewHybridDB(models.DefaultHybridOptions(), nil, log)
	for _, name := range from.CollectionNames() {
		toCol, err := to.Collection(name)
		if err != nil {
			continue
		}
		fromCol, err := from.Collection(name)
		if err != nil {
			return err
		}
		if _, err = hybrid.AddCollection(fromCol, NewLocalRemote(toCol)); err != nil {
			return err
		}
	}
	return hybrid.Upload(ctx)
}
