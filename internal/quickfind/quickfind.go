// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package quickfind implements the diff protocol that lets a client tell the
// server which documents it already holds, so that only changed shards
// travel back over the wire.
//
// The protocol has three phases:
//
//  1. EncodeRequest (client): shard local documents by the first two
//     UTF-16 code units of their id and hash every shard's "id:rev|" sequence.
//  2. EncodeResponse (server): recompute the digests over the authoritative
//     result and return the full contents of every shard that differs.
//  3. DecodeResponse (client): replace the differing shards of the local
//     result and reassemble the complete server result.
//
// A field projection may drop the revision and a limit without a sort gives
// unstable windows, so neither is eligible (see Eligible).
package quickfind

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"hash"
	"slices"
	"strconv"
	"strings"
	"sync"
	"unicode/utf16"

	"github.com/MKhiriev/go-doc-keeper/models"
)

const (
	// ShardLength is the number of leading id characters forming a shard key.
	ShardLength = 2
	// DigestLength is the number of hex characters kept from each digest.
	DigestLength = 20
)

var hasherPool = sync.Pool{
	New: func() any {
		return sha1.New()
	},
}

// ShardKey returns the shard a document id belongs to. The key is the first
// ShardLength UTF-16 code units of the id, so a leading non-BMP character
// fills a whole key. A surrogate pair cut in half decodes to U+FFFD.
func ShardKey(id string) string {
	units := utf16.Encode([]rune(id))
	if len(units) <= ShardLength {
		return id
	}
	return string(utf16.Decode(units[:ShardLength]))
}

// EncodeRequest summarises docs as shard key -> digest.
func EncodeRequest(docs []models.Document) map[string]string {
	request := make(map[string]string)
	for key, shard := range groupByShard(docs) {
		request[key] = Digest(shard)
	}
	return request
}

// EncodeResponse returns the server documents of every shard whose digest
// differs from the client's. Shards the client reported but the server no
// longer has are sent back empty; shards the client does not know are sent
// in full.
func EncodeResponse(serverDocs []models.Document, request map[string]string) models.QuickfindResponse {
	shards := groupByShard(serverDocs)
	for key := range request {
		if _, ok := shards[key]; !ok {
			shards[key] = []models.Document{}
		}
	}

	response := make(models.QuickfindResponse)
	for key, shard := range shards {
		if digest, ok := request[key]; ok && digest == Digest(shard) {
			continue
		}
		response[key] = shard
	}
	return response
}

// DecodeResponse rebuilds the complete result from the client's documents
// and the differing shards. The result is ordered by cmp, or by id when cmp
// is nil.
func DecodeResponse(response models.QuickfindResponse, localDocs []models.Document, cmp func(a, b models.Document) int) []models.Document {
	shards := groupByShard(localDocs)
	for key, shard := range response {
		shards[key] = shard
	}

	total := 0
	for _, shard := range shards {
		total += len(shard)
	}
	docs := make([]models.Document, 0, total)
	for _, shard := range shards {
		docs = append(docs, shard...)
	}

	if cmp == nil {
		cmp = byID
	}
	slices.SortStableFunc(docs, cmp)
	return docs
}

// Eligible reports whether a query may use quickfind: there must be local
// documents to diff against, a projection must keep the revision, and a
// limit requires a sort.
func Eligible(opts models.FindOptions, hasLocal bool) bool {
	if !hasLocal {
		return false
	}
	if opts.HasFields() && opts.Fields[models.RevField] != 1 {
		return false
	}
	return opts.Limit <= 0 || len(opts.Sort) > 0
}

// Digest hashes the id-sorted "id:rev|" sequence of docs and returns the
// first DigestLength hex characters.
func Digest(docs []models.Document) string {
	sorted := slices.Clone(docs)
	slices.SortStableFunc(sorted, byID)

	h := hasherPool.Get().(hash.Hash)
	h.Reset()
	defer hasherPool.Put(h)

	var b strings.Builder
	for _, doc := range sorted {
		b.Reset()
		b.WriteString(doc.ID())
		b.WriteByte(':')
		b.WriteString(formatRevision(doc))
		b.WriteByte('|')
		h.Write([]byte(b.String()))
	}

	return hex.EncodeToString(h.Sum(nil))[:DigestLength]
}

func groupByShard(docs []models.Document) map[string][]models.Document {
	shards := make(map[string][]models.Document)
	for _, doc := range docs {
		key := ShardKey(doc.ID())
		shards[key] = append(shards[key], doc)
	}
	return shards
}

// formatRevision renders a revision the way it appears in a digest; falsy
// revisions (see models.HasRevision) render as an empty string.
func formatRevision(doc models.Document) string {
	rev, _ := doc.Rev()
	if !models.HasRevision(rev) {
		return ""
	}
	switch v := rev.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}

func byID(a, b models.Document) int {
	return strings.Compare(a.ID(), b.ID())
}
