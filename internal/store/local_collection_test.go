package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-doc-keeper/internal/logger"
	"github.com/MKhiriev/go-doc-keeper/models"
)

type sequenceIDs struct {
	mu   sync.Mutex
	next int
}

func (s *sequenceIDs) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return fmt.Sprintf("gen-%03d", s.next)
}

func newTestCollection(t *testing.T, b Backend) *LocalCollection {
	t.Helper()
	return NewLocalCollection("items", b, logger.Nop(), WithIDGenerator(&sequenceIDs{}))
}

func mustRecord(t *testing.T, b Backend, id string) models.Record {
	t.Helper()
	rec, ok, err := b.Get(testContext(), "items", id)
	require.NoError(t, err)
	require.True(t, ok, "record %q should exist", id)
	return rec
}

func assertNoRecord(t *testing.T, b Backend, id string) {
	t.Helper()
	_, ok, err := b.Get(testContext(), "items", id)
	require.NoError(t, err)
	assert.False(t, ok, "record %q should not exist", id)
}

func TestLocalCollection_UpsertAssignsFreshIDs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b Backend) {
		ctx := testContext()
		col := newTestCollection(t, b)

		written, err := col.Upsert(ctx, []models.Document{{"v": 1}, {"v": 2}}, nil)
		require.NoError(t, err)
		require.Len(t, written, 2)
		assert.NotEmpty(t, written[0].ID())
		assert.NotEqual(t, written[0].ID(), written[1].ID())

		for _, doc := range written {
			rec := mustRecord(t, b, doc.ID())
			assert.Equal(t, models.StateUpserted, rec.State)
			assert.Nil(t, rec.Base, "a pure insert has no base")
		}
	})
}

func TestLocalCollection_UpsertDefaultIDsAreUnique(t *testing.T) {
	ctx := testContext()
	col := NewLocalCollection("items", NewMemoryBackend(), logger.Nop())

	seen := make(map[string]struct{})
	for range 50 {
		written, err := col.Upsert(ctx, []models.Document{{}}, nil)
		require.NoError(t, err)
		_, dup := seen[written[0].ID()]
		require.False(t, dup)
		seen[written[0].ID()] = struct{}{}
	}
}

func TestLocalCollection_UpsertBasePriority(t *testing.T) {
	ctx := testContext()
	b := NewMemoryBackend()
	col := newTestCollection(t, b)

	require.NoError(t, col.CacheList(ctx, []models.Document{{"_id": "1", "_rev": 1, "v": "a"}}))

	// cached doc becomes the base
	_, err := col.Upsert(ctx, []models.Document{{"_id": "1", "v": "b"}}, nil)
	require.NoError(t, err)
	rec := mustRecord(t, b, "1")
	assert.Equal(t, models.StateUpserted, rec.State)
	assert.True(t, rec.Base.Equal(models.Document{"_id": "1", "_rev": 1, "v": "a"}))

	// a second edit keeps the pending base
	_, err = col.Upsert(ctx, []models.Document{{"_id": "1", "v": "c"}}, nil)
	require.NoError(t, err)
	rec = mustRecord(t, b, "1")
	assert.Equal(t, "c", rec.Doc["v"])
	assert.True(t, rec.Base.Equal(models.Document{"_id": "1", "_rev": 1, "v": "a"}))

	// an explicit base wins
	_, err = col.Upsert(ctx, []models.Document{{"_id": "1", "v": "d"}}, []models.Document{{"_id": "1", "v": "x"}})
	require.NoError(t, err)
	rec = mustRecord(t, b, "1")
	assert.True(t, rec.Base.Equal(models.Document{"_id": "1", "v": "x"}))

	// removed records contribute no base
	require.NoError(t, col.Remove(ctx, "1"))
	_, err = col.Upsert(ctx, []models.Document{{"_id": "1", "v": "e"}}, nil)
	require.NoError(t, err)
	assert.Nil(t, mustRecord(t, b, "1").Base)
}

func TestLocalCollection_UpsertNilBaseFallsBack(t *testing.T) {
	ctx := testContext()
	b := NewMemoryBackend()
	col := newTestCollection(t, b)

	cached := models.Document{"_id": "1", "_rev": 1, "v": "a"}
	require.NoError(t, col.CacheList(ctx, []models.Document{cached, {"_id": "2", "_rev": 1}}))

	// a nil entry is the same as no entry
	_, err := col.Upsert(ctx, []models.Document{{"_id": "1", "v": "b"}}, []models.Document{nil})
	require.NoError(t, err)
	assert.True(t, mustRecord(t, b, "1").Base.Equal(cached))

	// uncaching first turns the write into a pure insert
	require.NoError(t, col.UncacheList(ctx, []string{"2"}))
	_, err = col.Upsert(ctx, []models.Document{{"_id": "2", "v": "c"}}, []models.Document{nil})
	require.NoError(t, err)
	rec := mustRecord(t, b, "2")
	assert.Equal(t, models.StateUpserted, rec.State)
	assert.Nil(t, rec.Base)
}

func TestLocalCollection_UpsertInvalidBase(t *testing.T) {
	ctx := testContext()
	b := NewMemoryBackend()
	col := newTestCollection(t, b)

	tests := []struct {
		name  string
		docs  []models.Document
		bases []models.Document
	}{
		{name: "base without id", docs: []models.Document{{"_id": "1"}}, bases: []models.Document{{"v": 1}}},
		{name: "mismatched id", docs: []models.Document{{"_id": "1"}}, bases: []models.Document{{"_id": "2"}}},
		{name: "more bases than docs", docs: []models.Document{{"_id": "1"}}, bases: []models.Document{{"_id": "1"}, {"_id": "2"}}},
		{name: "nil document", docs: []models.Document{nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := col.Upsert(ctx, tt.docs, tt.bases)
			require.ErrorIs(t, err, models.ErrInvalidArgument)
			assertNoRecord(t, b, "1")
		})
	}
}

func TestLocalCollection_UpsertDoesNotAliasCallerDocs(t *testing.T) {
	ctx := testContext()
	col := newTestCollection(t, NewMemoryBackend())

	doc := models.Document{"v": 1}
	written, err := col.Upsert(ctx, []models.Document{doc}, nil)
	require.NoError(t, err)

	assert.NotContains(t, doc, "_id", "caller's document is not modified")
	written[0]["v"] = 2

	found, err := col.FindOne(ctx, models.Selector{"_id": written[0].ID()}, models.FindOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, found["v"])
}

func TestLocalCollection_FindExcludesRemovedAndCounts(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b Backend) {
		ctx := testContext()
		col := newTestCollection(t, b)

		require.NoError(t, col.CacheList(ctx, []models.Document{
			{"_id": "a", "n": 1},
			{"_id": "b", "n": 2},
			{"_id": "c", "n": 3},
		}))
		_, err := col.Upsert(ctx, []models.Document{{"_id": "d", "n": 4}}, nil)
		require.NoError(t, err)
		require.NoError(t, col.Remove(ctx, "b"))

		docs, count, err := col.Find(ctx, models.Selector{"n": map[string]any{"$gte": 1}},
			models.FindOptions{Sort: models.Sort{{Field: "n", Desc: true}}, Limit: 2})
		require.NoError(t, err)

		assert.Equal(t, []string{"d", "c"}, docIDs(docs))
		assert.Equal(t, models.Count{Cached: 2, Upserted: 1}, count, "count is taken before limit")

		one, err := col.FindOne(ctx, models.Selector{"_id": "b"}, models.FindOptions{})
		require.NoError(t, err)
		assert.Nil(t, one, "removed documents are invisible")
	})
}

func TestLocalCollection_FindFields(t *testing.T) {
	ctx := testContext()
	col := newTestCollection(t, NewMemoryBackend())
	require.NoError(t, col.CacheList(ctx, []models.Document{{"_id": "a", "x": 1, "y": 2}}))

	docs, _, err := col.Find(ctx, nil, models.FindOptions{Fields: map[string]int{"x": 1}})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, models.Document{"_id": "a", "x": 1}, docs[0])
}

func TestLocalCollection_FindInvalidSelector(t *testing.T) {
	col := newTestCollection(t, NewMemoryBackend())

	_, _, err := col.Find(testContext(), models.Selector{"n": map[string]any{"$bogus": 1}}, models.FindOptions{})
	require.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestLocalCollection_RemoveCreatesTombstone(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b Backend) {
		ctx := testContext()
		col := newTestCollection(t, b)

		require.NoError(t, col.Remove(ctx, "ghost"))

		rec := mustRecord(t, b, "ghost")
		assert.Equal(t, models.StateRemoved, rec.State)
		assert.Equal(t, models.Document{"_id": "ghost"}, rec.Doc)

		removes, err := col.PendingRemoves(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"ghost"}, removes)

		require.ErrorIs(t, col.Remove(ctx, ""), models.ErrInvalidArgument)
	})
}

func TestLocalCollection_RemoveWhere(t *testing.T) {
	ctx := testContext()
	b := NewMemoryBackend()
	col := newTestCollection(t, b)

	require.NoError(t, col.CacheList(ctx, []models.Document{
		{"_id": "a", "kind": "x"},
		{"_id": "b", "kind": "y"},
		{"_id": "c", "kind": "x"},
	}))

	require.NoError(t, col.RemoveWhere(ctx, models.Selector{"kind": "x"}))

	removes, err := col.PendingRemoves(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "c"}, removes)
	assert.Equal(t, models.StateCached, mustRecord(t, b, "b").State)
}

func TestLocalCollection_CacheFreshness(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b Backend) {
		ctx := testContext()
		col := newTestCollection(t, b)

		require.NoError(t, col.CacheOne(ctx, models.Document{"_id": "1", "_rev": 2, "v": "two"}))

		// older or equal revisions never overwrite
		require.NoError(t, col.CacheOne(ctx, models.Document{"_id": "1", "_rev": 1, "v": "one"}))
		require.NoError(t, col.CacheOne(ctx, models.Document{"_id": "1", "_rev": 2, "v": "other"}))
		assert.Equal(t, "two", mustRecord(t, b, "1").Doc["v"])

		// newer revisions do
		require.NoError(t, col.CacheOne(ctx, models.Document{"_id": "1", "_rev": 3, "v": "three"}))
		assert.Equal(t, "three", mustRecord(t, b, "1").Doc["v"])

		// a missing revision on either side always overwrites
		require.NoError(t, col.CacheOne(ctx, models.Document{"_id": "1", "v": "norev"}))
		assert.Equal(t, "norev", mustRecord(t, b, "1").Doc["v"])
		require.NoError(t, col.CacheOne(ctx, models.Document{"_id": "1", "_rev": 1, "v": "back"}))
		assert.Equal(t, "back", mustRecord(t, b, "1").Doc["v"])
	})
}

func TestLocalCollection_CacheIsIdempotent(t *testing.T) {
	ctx := testContext()
	b := NewMemoryBackend()
	col := newTestCollection(t, b)

	doc := models.Document{"_id": "1", "_rev": 5, "v": "x"}
	require.NoError(t, col.Cache(ctx, []models.Document{doc}, nil, models.FindOptions{}))
	first := mustRecord(t, b, "1")

	require.NoError(t, col.Cache(ctx, []models.Document{doc}, nil, models.FindOptions{}))
	assert.Equal(t, first, mustRecord(t, b, "1"))
}

func TestLocalCollection_CacheNeverTouchesPending(t *testing.T) {
	ctx := testContext()
	b := NewMemoryBackend()
	col := newTestCollection(t, b)

	_, err := col.Upsert(ctx, []models.Document{{"_id": "u", "v": "local"}}, nil)
	require.NoError(t, err)
	require.NoError(t, col.Remove(ctx, "r"))

	require.NoError(t, col.Cache(ctx, []models.Document{
		{"_id": "u", "_rev": 9, "v": "remote"},
		{"_id": "r", "_rev": 9, "v": "remote"},
	}, nil, models.FindOptions{}))

	u := mustRecord(t, b, "u")
	assert.Equal(t, models.StateUpserted, u.State)
	assert.Equal(t, "local", u.Doc["v"])
	assert.Equal(t, models.StateRemoved, mustRecord(t, b, "r").State)
}

func TestLocalCollection_CacheWindowEviction(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b Backend) {
		ctx := testContext()
		col := newTestCollection(t, b)

		require.NoError(t, col.CacheList(ctx, []models.Document{{"_id": "c", "v": 3}}))

		incoming := []models.Document{{"_id": "a", "v": 1}, {"_id": "b", "v": 2}}
		opts := models.FindOptions{Limit: 2, Sort: models.Sort{{Field: "v"}}}
		require.NoError(t, col.Cache(ctx, incoming, nil, opts))

		docs, _, err := col.Find(ctx, nil, models.FindOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, docIDs(docs), "c is outside the 2-item window")
	})
}

func TestLocalCollection_CacheWindowEvictionRules(t *testing.T) {
	tests := []struct {
		name     string
		existing []models.Document
		incoming []models.Document
		sel      models.Selector
		opts     models.FindOptions
		want     []string
	}{
		{
			name:     "no limit keeps everything",
			existing: []models.Document{{"_id": "z", "v": 9}},
			incoming: []models.Document{{"_id": "a", "v": 1}},
			opts:     models.FindOptions{Sort: models.Sort{{Field: "v"}}},
			want:     []string{"a", "z"},
		},
		{
			name:     "sorted before the last incoming doc is kept",
			existing: []models.Document{{"_id": "m", "v": 1.5}},
			incoming: []models.Document{{"_id": "a", "v": 1}, {"_id": "b", "v": 2}},
			opts:     models.FindOptions{Limit: 2, Sort: models.Sort{{Field: "v"}}},
			want:     []string{"a", "b", "m"},
		},
		{
			name:     "without sort every missing match is evicted",
			existing: []models.Document{{"_id": "m", "v": 0}},
			incoming: []models.Document{{"_id": "a", "v": 1}},
			opts:     models.FindOptions{Limit: 5},
			want:     []string{"a"},
		},
		{
			name:     "non-matching cached docs are kept",
			existing: []models.Document{{"_id": "m", "kind": "other"}},
			incoming: []models.Document{{"_id": "a", "kind": "mine"}},
			sel:      models.Selector{"kind": "mine"},
			opts:     models.FindOptions{Limit: 1},
			want:     []string{"a", "m"},
		},
		{
			name:     "empty incoming page evicts all matches",
			existing: []models.Document{{"_id": "m", "v": 1}, {"_id": "n", "v": 2}},
			opts:     models.FindOptions{Limit: 2, Sort: models.Sort{{Field: "v"}}},
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext()
			col := newTestCollection(t, NewMemoryBackend())
			require.NoError(t, col.CacheList(ctx, tt.existing))

			require.NoError(t, col.Cache(ctx, tt.incoming, tt.sel, tt.opts))

			docs, _, err := col.Find(ctx, nil, models.FindOptions{})
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, docs)
				return
			}
			assert.Equal(t, tt.want, docIDs(docs))
		})
	}
}

func TestLocalCollection_EvictionSparesPending(t *testing.T) {
	ctx := testContext()
	b := NewMemoryBackend()
	col := newTestCollection(t, b)

	_, err := col.Upsert(ctx, []models.Document{{"_id": "p", "v": 9}}, nil)
	require.NoError(t, err)

	require.NoError(t, col.Cache(ctx, []models.Document{{"_id": "a", "v": 1}}, nil, models.FindOptions{Limit: 1}))
	assert.Equal(t, models.StateUpserted, mustRecord(t, b, "p").State)
}

func TestLocalCollection_ResolveUpserts(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b Backend) {
		ctx := testContext()
		col := newTestCollection(t, b)

		require.NoError(t, col.CacheOne(ctx, models.Document{"_id": "1", "_rev": 1, "v": "a"}))
		_, err := col.Upsert(ctx, []models.Document{{"_id": "1", "v": "b"}, {"_id": "2", "v": "x"}}, nil)
		require.NoError(t, err)

		pending, err := col.PendingUpserts(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 2)

		// "2" is edited again while its upload is in flight
		_, err = col.Upsert(ctx, []models.Document{{"_id": "2", "v": "y"}}, nil)
		require.NoError(t, err)

		require.NoError(t, col.ResolveUpserts(ctx, pending))

		one := mustRecord(t, b, "1")
		assert.Equal(t, models.StateCached, one.State)
		assert.Nil(t, one.Base)

		two := mustRecord(t, b, "2")
		assert.Equal(t, models.StateUpserted, two.State)
		assert.Equal(t, "y", two.Doc["v"])
		assert.True(t, two.Base.Equal(models.Document{"_id": "2", "v": "x"}), "the uploaded doc becomes the new base")
	})
}

func TestLocalCollection_UploadScenario(t *testing.T) {
	ctx := testContext()
	b := NewMemoryBackend()
	col := newTestCollection(t, b)

	require.NoError(t, col.CacheOne(ctx, models.Document{"_id": "1", "_rev": 1, "v": "a"}))
	_, err := col.Upsert(ctx, []models.Document{{"_id": "1", "v": "b"}}, nil)
	require.NoError(t, err)

	pending, err := col.PendingUpserts(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].Base.Equal(models.Document{"_id": "1", "_rev": 1, "v": "a"}))

	require.NoError(t, col.ResolveUpserts(ctx, pending))
	require.NoError(t, col.CacheOne(ctx, models.Document{"_id": "1", "_rev": 2, "v": "b"}))

	rec := mustRecord(t, b, "1")
	assert.Equal(t, models.StateCached, rec.State)
	assert.True(t, rec.Doc.Equal(models.Document{"_id": "1", "_rev": 2, "v": "b"}))
}

func TestLocalCollection_ResolveRemove(t *testing.T) {
	ctx := testContext()
	b := NewMemoryBackend()
	col := newTestCollection(t, b)

	require.NoError(t, col.Remove(ctx, "x"))
	require.NoError(t, col.ResolveRemove(ctx, "x"))
	assertNoRecord(t, b, "x")

	// a record that was re-upserted is left alone
	require.NoError(t, col.Remove(ctx, "y"))
	_, err := col.Upsert(ctx, []models.Document{{"_id": "y"}}, nil)
	require.NoError(t, err)
	require.NoError(t, col.ResolveRemove(ctx, "y"))
	assert.Equal(t, models.StateUpserted, mustRecord(t, b, "y").State)

	require.NoError(t, col.ResolveRemove(ctx, "never"))
}

func TestLocalCollection_Seed(t *testing.T) {
	ctx := testContext()
	b := NewMemoryBackend()
	col := newTestCollection(t, b)

	_, err := col.Upsert(ctx, []models.Document{{"_id": "1", "v": "mine"}}, nil)
	require.NoError(t, err)

	require.NoError(t, col.Seed(ctx, []models.Document{{"_id": "1", "v": "seed"}, {"_id": "2", "v": "seed"}}))

	assert.Equal(t, "mine", mustRecord(t, b, "1").Doc["v"])
	two := mustRecord(t, b, "2")
	assert.Equal(t, models.StateCached, two.State)
	assert.Equal(t, "seed", two.Doc["v"])

	require.ErrorIs(t, col.Seed(ctx, []models.Document{{"v": 1}}), models.ErrInvalidArgument)
}

func TestLocalCollection_Uncache(t *testing.T) {
	ctx := testContext()
	b := NewMemoryBackend()
	col := newTestCollection(t, b)

	require.NoError(t, col.CacheList(ctx, []models.Document{
		{"_id": "a", "kind": "x"},
		{"_id": "b", "kind": "x"},
		{"_id": "c", "kind": "y"},
	}))
	_, err := col.Upsert(ctx, []models.Document{{"_id": "p", "kind": "x"}}, nil)
	require.NoError(t, err)

	require.NoError(t, col.Uncache(ctx, models.Selector{"kind": "x"}))
	assertNoRecord(t, b, "a")
	assertNoRecord(t, b, "b")
	mustRecord(t, b, "c")
	assert.Equal(t, models.StateUpserted, mustRecord(t, b, "p").State)

	require.NoError(t, col.UncacheList(ctx, []string{"c", "p", "missing"}))
	assertNoRecord(t, b, "c")
	assert.Equal(t, models.StateUpserted, mustRecord(t, b, "p").State)
}

func TestLocalCollection_ConcurrentUpserts(t *testing.T) {
	ctx := testContext()
	b := NewMemoryBackend()
	col := newTestCollection(t, b)
	require.NoError(t, col.CacheOne(ctx, models.Document{"_id": "1", "v": 0}))

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := col.Upsert(ctx, []models.Document{{"_id": "1", "v": i}}, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec := mustRecord(t, b, "1")
	assert.Equal(t, models.StateUpserted, rec.State)
	assert.True(t, rec.Base.Equal(models.Document{"_id": "1", "v": 0}), "every writer sees the same base")
}

func docIDs(docs []models.Document) []string {
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID())
	}
	return ids
}
