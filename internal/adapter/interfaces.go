// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the remote gateway used by the hybrid engine to
// read from and write to the authoritative document server.
//
// The primary abstractions are [RemoteDB] and [RemoteCollection], which
// decouple the hybrid engine from the underlying protocol. The package ships
// an HTTP/REST implementation ([NewHTTPRemoteAdapter]) that speaks the
// find, quickfind, upsert and remove wire protocol of the document server.
//
// Non-2xx responses are mapped by mapHTTPError to a [models.RemoteError]
// carrying the status code, so callers can use [errors.Is] with
// [models.ErrRemoteFault], [models.ErrGone] or [models.ErrForbidden].
package adapter

import (
	"context"

	"github.com/MKhiriev/go-doc-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/remote_collection_mock.go -package=mock

// RemoteDB hands out gateways for individual remote collections.
type RemoteDB interface {
	// Collection returns the gateway for name. Repeated calls return the
	// same gateway.
	Collection(name string) RemoteCollection

	// CollectionNames lists the collections handed out so far, sorted.
	CollectionNames() []string

	// SetToken replaces the client token attached to every request.
	SetToken(token string)

	// Token returns the current client token, or an empty string.
	Token() string
}

// RemoteCollection is the authoritative store of one collection.
type RemoteCollection interface {
	// Find returns the server documents matching selector shaped by opts,
	// and the number of server documents matching before skip and limit.
	//
	// localDocs is the caller's current local result for the same query.
	// When it is non-empty and the query is eligible, the implementation
	// may exchange shard digests instead of full results.
	Find(ctx context.Context, selector models.Selector, opts models.FindOptions, localDocs []models.Document) ([]models.Document, int, error)

	// Upsert sends doc to the server. A non-nil base asks the server to merge
	// the changes between base and doc into its own copy. The returned
	// document is the server's canonical version; nil means the server
	// dropped the document.
	Upsert(ctx context.Context, doc, base models.Document) (models.Document, error)

	// Remove deletes id on the server. A document that is already gone is
	// not an error.
	Remove(ctx context.Context, id string) error
}
