// Package store holds the local document store of the client and the
// document tables of the server.
//
// On the client, [LocalCollection] implements the cached/upserted/removed
// state machine over a physical [Backend] (memory, sqlite or bbolt) chosen
// with [NewBackend]. [LocalDB] maps collection names to collections.
//
// On the server, [DocumentRepository] stores documents with monotonically
// increasing revisions in Postgres ([NewDocumentRepository]) or in memory
// ([NewMemoryDocumentRepository]).
package store
