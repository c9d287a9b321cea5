// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package selector evaluates MongoDB-style selectors, sorts and field
// projections over in-memory documents.
//
// It is the query engine shared by every local backend, the hybrid engine
// (which re-applies the query over merged local and remote results) and the
// document server's in-memory repository. Compiled selectors are memoised in
// an LRU cache keyed by the canonical JSON form of the selector.
package selector

import (
	"encoding/json"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru"

	"github.com/MKhiriev/go-doc-keeper/models"
)

// DefaultCacheSize is the number of compiled selectors kept by New when
// size is not positive.
const DefaultCacheSize = 256

// Matcher reports whether a document satisfies a compiled selector.
type Matcher func(doc models.Document) bool

// Comparator orders two documents; it returns a negative number when a
// sorts before b, zero when they tie and a positive number otherwise.
type Comparator func(a, b models.Document) int

// Evaluator compiles selectors and sorts and applies whole queries.
type Evaluator struct {
	cache *lru.Cache
}

// New creates an Evaluator with an LRU of size compiled selectors.
func New(size int) *Evaluator {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		// lru.New fails only for non-positive sizes.
		panic(err)
	}
	return &Evaluator{cache: cache}
}

// Compile turns sel into a Matcher. An empty selector matches everything.
// Malformed operators yield models.ErrInvalidArgument.
func (e *Evaluator) Compile(sel models.Selector) (Matcher, error) {
	if len(sel) == 0 {
		return matchAll, nil
	}

	key, err := json.Marshal(sel)
	if err != nil {
		return nil, fmt.Errorf("%w: selector is not serialisable: %w", models.ErrInvalidArgument, err)
	}
	if cached, ok := e.cache.Get(string(key)); ok {
		return cached.(Matcher), nil
	}

	pred, err := compileDocument(map[string]any(sel))
	if err != nil {
		return nil, err
	}
	matcher := Matcher(func(doc models.Document) bool {
		return pred(map[string]any(doc))
	})
	e.cache.Add(string(key), matcher)
	return matcher, nil
}

// CompileSort turns sort into a Comparator. A nil result means "no order".
func (e *Evaluator) CompileSort(sort models.Sort) Comparator {
	if len(sort) == 0 {
		return nil
	}
	keys := slices.Clone(sort)
	return func(a, b models.Document) int {
		for _, key := range keys {
			c := compareValues(sortValue(a, key.Field), sortValue(b, key.Field))
			if c == 0 {
				continue
			}
			if key.Desc {
				return -c
			}
			return c
		}
		return 0
	}
}

// Process filters docs by sel, sorts them, applies skip and limit and finally
// the field projection. It returns the resulting documents and the number of
// documents that matched before skip and limit. docs is not modified.
func (e *Evaluator) Process(docs []models.Document, sel models.Selector, opts models.FindOptions) ([]models.Document, int, error) {
	matcher, err := e.Compile(sel)
	if err != nil {
		return nil, 0, err
	}

	filtered := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		if matcher(doc) {
			filtered = append(filtered, doc)
		}
	}
	matched := len(filtered)

	if cmp := e.CompileSort(opts.Sort); cmp != nil {
		slices.SortStableFunc(filtered, cmp)
	}

	filtered = Page(filtered, opts.Skip, opts.Limit)
	return FilterFields(filtered, opts.Fields), matched, nil
}

// Page applies skip then limit. Non-positive values are ignored.
func Page(docs []models.Document, skip, limit int) []models.Document {
	if skip > 0 {
		if skip >= len(docs) {
			return []models.Document{}
		}
		docs = docs[skip:]
	}
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs
}

// ByID orders documents by ascending id.
func ByID(a, b models.Document) int {
	switch {
	case a.ID() < b.ID():
		return -1
	case a.ID() > b.ID():
		return 1
	default:
		return 0
	}
}

func matchAll(models.Document) bool { return true }

func sortValue(doc models.Document, field string) any {
	values := lookup(map[string]any(doc), field)
	if len(values) == 0 {
		return nil
	}
	return values[0]
}
