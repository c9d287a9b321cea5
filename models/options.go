// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Selector is a MongoDB-style query document, e.g.
// {"status": "open", "size": {"$gt": 3}}. A nil or empty Selector matches
// every document.
type Selector map[string]any

// SortField is one key of a multi-key sort.
type SortField struct {
	Field string
	Desc  bool
}

// MarshalJSON encodes the field as ["field", "asc"|"desc"].
func (s SortField) MarshalJSON() ([]byte, error) {
	dir := "asc"
	if s.Desc {
		dir = "desc"
	}
	return json.Marshal([]string{s.Field, dir})
}

// UnmarshalJSON accepts either a bare "field" (ascending) or a
// ["field", "asc"|"desc"] pair.
func (s *SortField) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*s = SortField{Field: name}
		return nil
	}

	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("%w: sort field: %w", ErrInvalidArgument, err)
	}
	if len(pair) == 0 || len(pair) > 2 || pair[0] == "" {
		return fmt.Errorf("%w: sort field %s", ErrInvalidArgument, string(data))
	}

	*s = SortField{Field: pair[0]}
	if len(pair) == 2 {
		switch strings.ToLower(pair[1]) {
		case "asc":
		case "desc":
			s.Desc = true
		default:
			return fmt.Errorf("%w: sort direction %q", ErrInvalidArgument, pair[1])
		}
	}
	return nil
}

// Sort is an ordered list of sort keys; earlier keys take precedence.
type Sort []SortField

// FindOptions shapes the result of a query. Zero values mean "not set".
type FindOptions struct {
	Sort  Sort `json:"sort,omitempty"`
	Skip  int  `json:"skip,omitempty"`
	Limit int  `json:"limit,omitempty"`
	// Fields is a projection: 1 includes a field, 0 excludes it. Mixing
	// both modes is only allowed for IDField.
	Fields map[string]int `json:"fields,omitempty"`
}

// HasFields reports whether a projection is set.
func (o FindOptions) HasFields() bool {
	return len(o.Fields) > 0
}

// WithoutFields returns a copy of o without a projection.
func (o FindOptions) WithoutFields() FindOptions {
	o.Fields = nil
	return o
}

// HybridOptions tune the read and upload reconciliation of a hybrid
// collection. DefaultHybridOptions returns the documented defaults.
type HybridOptions struct {
	// CacheFind persists remote Find results into the local store.
	CacheFind bool
	// CacheFindOne persists remote FindOne results into the local store.
	CacheFindOne bool
	// Interim delivers the local result before the remote one arrives.
	Interim bool
	// UseLocalOnRemoteError falls back to local results when the remote
	// fails or times out and no interim result was delivered.
	UseLocalOnRemoteError bool
	// Shortcut makes FindOne stop after a local hit.
	Shortcut bool
	// Timeout bounds the remote read; zero disables the timer.
	Timeout time.Duration
	// SortUpserts orders pending upserts before upload when set.
	SortUpserts func(a, b Document) int
}

// DefaultHybridOptions returns CacheFind, CacheFindOne, Interim and
// UseLocalOnRemoteError enabled, Shortcut disabled and no timeout.
func DefaultHybridOptions() HybridOptions {
	return HybridOptions{
		CacheFind:             true,
		CacheFindOne:          true,
		Interim:               true,
		UseLocalOnRemoteError: true,
	}
}

// HybridOption overrides one field of HybridOptions for a single call.
type HybridOption func(*HybridOptions)

// WithInterim sets HybridOptions.Interim.
func WithInterim(v bool) HybridOption {
	return func(o *HybridOptions) { o.Interim = v }
}

// WithCacheFind sets HybridOptions.CacheFind.
func WithCacheFind(v bool) HybridOption {
	return func(o *HybridOptions) { o.CacheFind = v }
}

// WithCacheFindOne sets HybridOptions.CacheFindOne.
func WithCacheFindOne(v bool) HybridOption {
	return func(o *HybridOptions) { o.CacheFindOne = v }
}

// WithUseLocalOnRemoteError sets HybridOptions.UseLocalOnRemoteError.
func WithUseLocalOnRemoteError(v bool) HybridOption {
	return func(o *HybridOptions) { o.UseLocalOnRemoteError = v }
}

// WithShortcut sets HybridOptions.Shortcut.
func WithShortcut(v bool) HybridOption {
	return func(o *HybridOptions) { o.Shortcut = v }
}

// WithTimeout sets HybridOptions.Timeout.
func WithTimeout(d time.Duration) HybridOption {
	return func(o *HybridOptions) { o.Timeout = d }
}

// WithSortUpserts sets HybridOptions.SortUpserts.
func WithSortUpserts(fn func(a, b Document) int) HybridOption {
	return func(o *HybridOptions) { o.SortUpserts = fn }
}

// Apply returns a copy of o with every override applied.
func (o HybridOptions) Apply(overrides ...HybridOption) HybridOptions {
	for _, override := range overrides {
		if override != nil {
			override(&o)
		}
	}
	return o
}
