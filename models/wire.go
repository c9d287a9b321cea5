// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// TotalCountHeader carries the number of matching server documents before
// skip and limit on every find response.
const TotalCountHeader = "X-Total-Count"

// FindRequest is the body of POST {collection}/find, used when the query
// string of a GET would be too long.
type FindRequest struct {
	Selector Selector       `json:"selector"`
	Sort     Sort           `json:"sort,omitempty"`
	Limit    int            `json:"limit,omitempty"`
	Skip     int            `json:"skip,omitempty"`
	Fields   map[string]int `json:"fields,omitempty"`
	Client   string         `json:"client,omitempty"`
}

// Options returns the query shape carried by the request.
func (r FindRequest) Options() FindOptions {
	return FindOptions{Sort: r.Sort, Skip: r.Skip, Limit: r.Limit, Fields: r.Fields}
}

// QuickfindRequest is the body of POST {collection}/quickfind. Quickfind maps
// every shard key of the client's local result to its content digest.
type QuickfindRequest struct {
	FindRequest
	Quickfind map[string]string `json:"quickfind"`
}

// QuickfindResponse carries, for every shard whose digest differed, the full
// set of server documents of that shard.
type QuickfindResponse map[string][]Document

// UpsertRequest is the body of PATCH {collection}: the new document plus the
// base it was derived from.
type UpsertRequest struct {
	Doc  Document `json:"doc"`
	Base Document `json:"base"`
}

// ErrorResponse is the JSON error body returned by the document server.
type ErrorResponse struct {
	Error string `json:"error"`
}
