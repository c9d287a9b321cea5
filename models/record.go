// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// State is the lifecycle state of a local record.
type State string

const (
	// StateCached marks a record that mirrors the remote and is owned by the
	// reconciliation path.
	StateCached State = "cached"
	// StateUpserted marks a local write that has not been uploaded yet.
	StateUpserted State = "upserted"
	// StateRemoved marks a local delete (tombstone) that has not been
	// acknowledged by the remote yet.
	StateRemoved State = "removed"
)

// Record is one entry of a local collection. There is at most one Record per
// (Collection, ID).
type Record struct {
	Collection string   `json:"col"`
	ID         string   `json:"id"`
	State      State    `json:"state"`
	Doc        Document `json:"doc"`
	// Base is only meaningful in StateUpserted: the last snapshot known to
	// match the remote, nil for a pure insert.
	Base Document `json:"base"`
}

// PendingUpsert is a read-only projection of an upserted record.
type PendingUpsert struct {
	Doc  Document `json:"doc"`
	Base Document `json:"base"`
}

// Count splits the number of matching local documents by state. It is
// computed before skip, limit and field projection are applied.
type Count struct {
	Cached   int `json:"cached"`
	Upserted int `json:"upserted"`
}

// Total returns Cached + Upserted.
func (c Count) Total() int {
	return c.Cached + c.Upserted
}
