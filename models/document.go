// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"reflect"
)

// Reserved document field names.
const (
	// IDField holds the unique string identifier of a document.
	IDField = "_id"
	// RevField holds the optional freshness token of a document.
	RevField = "_rev"
)

// Document is an open-ended JSON record. Every stored document carries a
// string IDField; RevField is optional.
type Document map[string]any

// ID returns the document identifier or an empty string if the document has
// none (or it is not a string).
func (d Document) ID() string {
	if d == nil {
		return ""
	}
	id, _ := d[IDField].(string)
	return id
}

// SetID stores id under IDField.
func (d Document) SetID(id string) {
	d[IDField] = id
}

// Rev returns the revision token and whether the document has one.
func (d Document) Rev() (any, bool) {
	if d == nil {
		return nil, false
	}
	rev, ok := d[RevField]
	if !ok || rev == nil {
		return nil, false
	}
	return rev, true
}

// Clone returns a deep copy of the document. Nested maps and slices are
// copied so the result can be mutated freely.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return cloneValue(map[string]any(d)).(map[string]any)
}

// Equal reports whether two documents carry the same content.
// Numbers are compared after JSON normalisation so that an int 1 equals a
// float64 1 decoded from the wire.
func (d Document) Equal(other Document) bool {
	if d == nil || other == nil {
		return d == nil && other == nil
	}
	return reflect.DeepEqual(normalize(d), normalize(other))
}

// Tombstone returns the minimal document representing a removed id.
func Tombstone(id string) Document {
	return Document{IDField: id}
}

// CloneDocuments deep-copies every document of docs.
func CloneDocuments(docs []Document) []Document {
	if docs == nil {
		return nil
	}
	out := make([]Document, len(docs))
	for i, doc := range docs {
		out[i] = doc.Clone()
	}
	return out
}

// EqualDocuments reports whether both lists hold equal documents in the same
// order.
func EqualDocuments(a, b []Document) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func cloneValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[k] = cloneValue(item)
		}
		return out
	case Document:
		return Document(cloneValue(map[string]any(value)).(map[string]any))
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return value
	}
}

func normalize(d Document) any {
	payload, err := json.Marshal(d)
	if err != nil {
		return map[string]any(d)
	}
	var out any
	if err = json.Unmarshal(payload, &out); err != nil {
		return map[string]any(d)
	}
	return out
}
