// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/fishy/rowlock"

	"github.com/MKhiriev/go-doc-keeper/internal/logger"
	"github.com/MKhiriev/go-doc-keeper/internal/selector"
	"github.com/MKhiriev/go-doc-keeper/internal/utils"
	"github.com/MKhiriev/go-doc-keeper/models"
)

// LocalCollection is the local state machine of one named collection.
//
// Every record is cached, upserted or removed. Cached records belong to the
// remote-refresh path (Cache, CacheList, Uncache); upserted and removed
// records belong to the write path (Upsert, Remove) until ResolveUpserts or
// ResolveRemove settles them. Mutations of one document are serialised with
// a row lock keyed by (collection, id).
type LocalCollection struct {
	name    string
	backend Backend
	eval    Evaluator
	ids     IDGenerator
	newer   models.NewerFunc
	locks   *rowlock.RowLock
	logger  *logger.Logger
}

// CollectionOption customises a LocalCollection.
type CollectionOption func(*LocalCollection)

// WithEvaluator replaces the selector engine.
func WithEvaluator(e Evaluator) CollectionOption {
	return func(c *LocalCollection) { c.eval = e }
}

// WithIDGenerator replaces the id generator used for documents without _id.
func WithIDGenerator(g IDGenerator) CollectionOption {
	return func(c *LocalCollection) { c.ids = g }
}

// WithNewer replaces the revision ordering used by the freshness rule.
func WithNewer(fn models.NewerFunc) CollectionOption {
	return func(c *LocalCollection) { c.newer = fn }
}

type rowKey struct {
	col string
	id  string
}

// NewLocalCollection binds the collection name to backend.
func NewLocalCollection(name string, backend Backend, log *logger.Logger, opts ...CollectionOption) *LocalCollection {
	c := &LocalCollection{
		name:    name,
		backend: backend,
		eval:    selector.New(selector.DefaultCacheSize),
		ids:     utils.NewUUIDGenerator(),
		newer:   models.DefaultNewer,
		locks:   rowlock.NewRowLock(rowlock.MutexNewLocker),
		logger:  log.WithCollection(name),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the collection name.
func (c *LocalCollection) Name() string {
	return c.name
}

// Evaluator returns the selector engine used by the collection.
func (c *LocalCollection) Evaluator() Evaluator {
	return c.eval
}

// Find returns the non-removed documents matching sel with opts applied.
// The count is taken before skip, limit and field projection.
func (c *LocalCollection) Find(ctx context.Context, sel models.Selector, opts models.FindOptions) ([]models.Document, models.Count, error) {
	records, err := c.backend.QueryCollection(ctx, c.name)
	if err != nil {
		c.logger.Err(err).Str("func", "LocalCollection.Find").Msg("failed to query collection")
		return nil, models.Count{}, err
	}

	match, err := c.eval.Compile(sel)
	if err != nil {
		return nil, models.Count{}, err
	}

	var count models.Count
	matched := make([]models.Document, 0, len(records))
	for _, rec := range records {
		if rec.State == models.StateRemoved || !match(rec.Doc) {
			continue
		}
		if rec.State == models.StateUpserted {
			count.Upserted++
		} else {
			count.Cached++
		}
		matched = append(matched, rec.Doc)
	}

	docs, _, err := c.eval.Process(matched, nil, opts)
	if err != nil {
		return nil, models.Count{}, err
	}
	return docs, count, nil
}

// FindOne returns the first document Find would return, or nil.
func (c *LocalCollection) FindOne(ctx context.Context, sel models.Selector, opts models.FindOptions) (models.Document, error) {
	opts.Limit = 1
	docs, _, err := c.Find(ctx, sel, opts)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

// Upsert records local writes. Documents without _id get a fresh one.
// bases[i], when present and non-nil, is the explicit base of docs[i];
// otherwise the base is the pending base of an upserted record, the document
// of a cached record, or nil. The written documents are returned.
func (c *LocalCollection) Upsert(ctx context.Context, docs []models.Document, bases []models.Document) ([]models.Document, error) {
	if len(bases) > len(docs) {
		return nil, fmt.Errorf("%w: %d bases for %d documents", models.ErrInvalidArgument, len(bases), len(docs))
	}

	written := make([]models.Document, len(docs))
	ids := make([]string, len(docs))
	for i, doc := range docs {
		if doc == nil {
			return nil, fmt.Errorf("%w: document %d is nil", models.ErrInvalidArgument, i)
		}
		doc = doc.Clone()
		if doc.ID() == "" {
			doc.SetID(c.ids.Generate())
		}
		if i < len(bases) && bases[i] != nil && bases[i].ID() != doc.ID() {
			return nil, fmt.Errorf("%w: base id %q does not match document id %q", models.ErrInvalidArgument, bases[i].ID(), doc.ID())
		}
		written[i] = doc
		ids[i] = doc.ID()
	}

	unlock := c.lock(ids)
	defer unlock()

	existing, err := c.backend.GetBatch(ctx, c.name, ids)
	if err != nil {
		return nil, err
	}

	records := make([]models.Record, 0, len(written))
	position := make(map[string]int, len(written))
	for i, doc := range written {
		var base models.Document
		if i < len(bases) && bases[i] != nil {
			base = bases[i].Clone()
		} else if rec, ok := existing[doc.ID()]; ok {
			switch rec.State {
			case models.StateUpserted:
				base = rec.Base
			case models.StateCached:
				base = rec.Doc
			}
		}

		rec := models.Record{Collection: c.name, ID: doc.ID(), State: models.StateUpserted, Doc: doc, Base: base}
		// later duplicates of the same id win, as if written one by one
		existing[doc.ID()] = rec
		records = appendRecord(records, position, rec)
	}

	if err = c.backend.PutBatch(ctx, records); err != nil {
		c.logger.Err(err).Str("func", "LocalCollection.Upsert").Int("docs", len(records)).Msg("failed to write upserts")
		return nil, err
	}
	return models.CloneDocuments(written), nil
}

// Remove tombstones id. An absent id gets a {_id} tombstone so the delete
// still reaches the remote.
func (c *LocalCollection) Remove(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", models.ErrInvalidArgument)
	}

	unlock := c.lock([]string{id})
	defer unlock()

	rec, ok, err := c.backend.Get(ctx, c.name, id)
	if err != nil {
		return err
	}
	if !ok {
		rec = models.Record{Collection: c.name, ID: id, Doc: models.Tombstone(id)}
	}
	rec.State = models.StateRemoved

	if err = c.backend.PutBatch(ctx, []models.Record{rec}); err != nil {
		c.logger.Err(err).Str("func", "LocalCollection.Remove").Str("id", id).Msg("failed to write tombstone")
		return err
	}
	return nil
}

// RemoveWhere removes every document Find returns for sel.
func (c *LocalCollection) RemoveWhere(ctx context.Context, sel models.Selector) error {
	docs, _, err := c.Find(ctx, sel, models.FindOptions{})
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err = c.Remove(ctx, doc.ID()); err != nil {
			return err
		}
	}
	return nil
}

// Cache merges authoritative remote results. Only cached or absent records
// are overwritten, and only by newer revisions. When opts.Limit is set,
// cached records matching sel that are missing from docs are evicted unless
// opts.Sort is set and they sort before the last incoming document.
func (c *LocalCollection) Cache(ctx context.Context, docs []models.Document, sel models.Selector, opts models.FindOptions) error {
	if err := c.CacheList(ctx, docs); err != nil {
		return err
	}
	if opts.Limit <= 0 {
		return nil
	}
	return c.evictOutsideWindow(ctx, docs, sel, opts)
}

func (c *LocalCollection) evictOutsideWindow(ctx context.Context, docs []models.Document, sel models.Selector, opts models.FindOptions) error {
	match, err := c.eval.Compile(sel)
	if err != nil {
		return err
	}

	incoming := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		incoming[doc.ID()] = struct{}{}
	}

	var last models.Document
	cmp := c.eval.CompileSort(opts.Sort)
	if cmp != nil && len(docs) > 0 {
		last = docs[len(docs)-1]
	}

	cached, err := c.backend.QueryState(ctx, c.name, models.StateCached)
	if err != nil {
		return err
	}

	var candidates []string
	for _, rec := range cached {
		if _, ok := incoming[rec.ID]; ok || !match(rec.Doc) {
			continue
		}
		if last != nil && cmp(rec.Doc, last) < 0 {
			continue
		}
		candidates = append(candidates, rec.ID)
	}

	evicted, err := c.deleteCached(ctx, candidates)
	if err != nil {
		return err
	}
	if evicted > 0 {
		c.logger.Debug().Str("func", "LocalCollection.Cache").Int("evicted", evicted).Msg("evicted cached documents outside the window")
	}
	return nil
}

// CacheOne applies the freshness rule to one document.
func (c *LocalCollection) CacheOne(ctx context.Context, doc models.Document) error {
	return c.CacheList(ctx, []models.Document{doc})
}

// CacheList applies the freshness rule to each document, without eviction.
func (c *LocalCollection) CacheList(ctx context.Context, docs []models.Document) error {
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.ID() == "" {
			return fmt.Errorf("%w: cached document without %s", models.ErrInvalidArgument, models.IDField)
		}
		ids = append(ids, doc.ID())
	}
	if len(ids) == 0 {
		return nil
	}

	unlock := c.lock(ids)
	defer unlock()

	existing, err := c.backend.GetBatch(ctx, c.name, ids)
	if err != nil {
		return err
	}

	records := make([]models.Record, 0, len(docs))
	position := make(map[string]int, len(docs))
	for _, doc := range docs {
		rec, ok := existing[doc.ID()]
		if ok && (rec.State != models.StateCached || !models.IsNewer(doc, rec.Doc, c.newer)) {
			continue
		}

		rec = models.Record{Collection: c.name, ID: doc.ID(), State: models.StateCached, Doc: doc.Clone()}
		existing[doc.ID()] = rec
		records = appendRecord(records, position, rec)
	}

	if err = c.backend.PutBatch(ctx, records); err != nil {
		c.logger.Err(err).Str("func", "LocalCollection.CacheList").Int("docs", len(records)).Msg("failed to cache documents")
		return err
	}
	return nil
}

// PendingUpserts lists every upserted record with its base.
func (c *LocalCollection) PendingUpserts(ctx context.Context) ([]models.PendingUpsert, error) {
	records, err := c.backend.QueryState(ctx, c.name, models.StateUpserted)
	if err != nil {
		return nil, err
	}

	upserts := make([]models.PendingUpsert, 0, len(records))
	for _, rec := range records {
		upserts = append(upserts, models.PendingUpsert{Doc: rec.Doc, Base: rec.Base})
	}
	return upserts, nil
}

// PendingRemoves lists the ids of every removed record.
func (c *LocalCollection) PendingRemoves(ctx context.Context) ([]string, error) {
	records, err := c.backend.QueryState(ctx, c.name, models.StateRemoved)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	return ids, nil
}

// ResolveUpserts settles uploaded upserts. A record still upserted with the
// uploaded document becomes cached; one edited meanwhile stays upserted with
// the uploaded document as its new base.
func (c *LocalCollection) ResolveUpserts(ctx context.Context, upserts []models.PendingUpsert) error {
	ids := make([]string, 0, len(upserts))
	for _, upsert := range upserts {
		ids = append(ids, upsert.Doc.ID())
	}
	if len(ids) == 0 {
		return nil
	}

	unlock := c.lock(ids)
	defer unlock()

	existing, err := c.backend.GetBatch(ctx, c.name, ids)
	if err != nil {
		return err
	}

	records := make([]models.Record, 0, len(upserts))
	for _, upsert := range upserts {
		rec, ok := existing[upsert.Doc.ID()]
		if !ok || rec.State != models.StateUpserted {
			continue
		}

		if rec.Doc.Equal(upsert.Doc) {
			rec.State = models.StateCached
			rec.Base = nil
		} else {
			rec.Base = upsert.Doc.Clone()
		}
		existing[rec.ID] = rec
		records = append(records, rec)
	}

	if err = c.backend.PutBatch(ctx, records); err != nil {
		c.logger.Err(err).Str("func", "LocalCollection.ResolveUpserts").Int("docs", len(records)).Msg("failed to resolve upserts")
		return err
	}
	return nil
}

// ResolveRemove deletes the record of id if it is still removed.
func (c *LocalCollection) ResolveRemove(ctx context.Context, id string) error {
	unlock := c.lock([]string{id})
	defer unlock()

	rec, ok, err := c.backend.Get(ctx, c.name, id)
	if err != nil || !ok || rec.State != models.StateRemoved {
		return err
	}
	return c.backend.RemoveBatch(ctx, c.name, []string{id})
}

// Seed inserts docs as cached where no record exists yet.
func (c *LocalCollection) Seed(ctx context.Context, docs []models.Document) error {
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.ID() == "" {
			return fmt.Errorf("%w: seeded document without %s", models.ErrInvalidArgument, models.IDField)
		}
		ids = append(ids, doc.ID())
	}
	if len(ids) == 0 {
		return nil
	}

	unlock := c.lock(ids)
	defer unlock()

	existing, err := c.backend.GetBatch(ctx, c.name, ids)
	if err != nil {
		return err
	}

	records := make([]models.Record, 0, len(docs))
	for _, doc := range docs {
		if _, ok := existing[doc.ID()]; ok {
			continue
		}
		rec := models.Record{Collection: c.name, ID: doc.ID(), State: models.StateCached, Doc: doc.Clone()}
		existing[doc.ID()] = rec
		records = append(records, rec)
	}
	return c.backend.PutBatch(ctx, records)
}

// Uncache deletes cached records matching sel. Pending records are kept.
func (c *LocalCollection) Uncache(ctx context.Context, sel models.Selector) error {
	match, err := c.eval.Compile(sel)
	if err != nil {
		return err
	}

	cached, err := c.backend.QueryState(ctx, c.name, models.StateCached)
	if err != nil {
		return err
	}

	var ids []string
	for _, rec := range cached {
		if match(rec.Doc) {
			ids = append(ids, rec.ID)
		}
	}

	_, err = c.deleteCached(ctx, ids)
	return err
}

// UncacheList deletes the cached records among ids.
func (c *LocalCollection) UncacheList(ctx context.Context, ids []string) error {
	_, err := c.deleteCached(ctx, ids)
	return err
}

// deleteCached removes the records of ids that are still cached under the
// row lock and reports how many were deleted.
func (c *LocalCollection) deleteCached(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	unlock := c.lock(ids)
	defer unlock()

	existing, err := c.backend.GetBatch(ctx, c.name, ids)
	if err != nil {
		return 0, err
	}

	doomed := make([]string, 0, len(existing))
	for id, rec := range existing {
		if rec.State == models.StateCached {
			doomed = append(doomed, id)
		}
	}
	slices.Sort(doomed)

	if err = c.backend.RemoveBatch(ctx, c.name, doomed); err != nil {
		c.logger.Err(err).Str("func", "LocalCollection.deleteCached").Int("ids", len(doomed)).Msg("failed to delete cached records")
		return 0, err
	}
	return len(doomed), nil
}

// appendRecord appends rec or replaces the earlier record with the same id.
func appendRecord(records []models.Record, position map[string]int, rec models.Record) []models.Record {
	if at, ok := position[rec.ID]; ok {
		records[at] = rec
		return records
	}
	position[rec.ID] = len(records)
	return append(records, rec)
}

// lock takes the row locks of ids in sorted order and returns the release
// function.
func (c *LocalCollection) lock(ids []string) func() {
	keys := slices.Clone(ids)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	for _, id := range keys {
		c.locks.Lock(rowKey{col: c.name, id: id})
	}
	return func() {
		for i := len(keys) - 1; i >= 0; i-- {
			c.locks.Unlock(rowKey{col: c.name, id: keys[i]})
		}
	}
}
