// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package selector

import (
	"strings"

	"github.com/MKhiriev/go-doc-keeper/models"
)

// FilterFields applies a projection to docs and returns projected copies.
// A projection that includes any field other than _id is an include list
// (_id is kept unless excluded explicitly); otherwise it lists fields to drop.
func FilterFields(docs []models.Document, fields map[string]int) []models.Document {
	if len(fields) == 0 {
		return docs
	}

	include := isInclusion(fields)
	out := make([]models.Document, len(docs))
	for i, doc := range docs {
		if include {
			out[i] = includeFields(doc, fields)
		} else {
			out[i] = excludeFields(doc, fields)
		}
	}
	return out
}

// KeepsRevision reports whether the projection leaves the revision intact.
func KeepsRevision(fields map[string]int) bool {
	if len(fields) == 0 {
		return true
	}
	v, listed := fields[models.RevField]
	if isInclusion(fields) {
		return listed && v == 1
	}
	return !listed
}

func isInclusion(fields map[string]int) bool {
	for field, v := range fields {
		if field != models.IDField && v == 1 {
			return true
		}
	}
	return false
}

func includeFields(doc models.Document, fields map[string]int) models.Document {
	out := models.Document{}
	paths := make([]string, 0, len(fields)+1)
	for field, v := range fields {
		if v == 1 {
			paths = append(paths, field)
		}
	}
	if v, listed := fields[models.IDField]; !listed || v == 1 {
		paths = append(paths, models.IDField)
	}

	for _, path := range paths {
		parts := strings.Split(path, ".")
		value, ok := walk(map[string]any(doc), parts)
		if !ok || value == nil {
			continue
		}
		to := map[string]any(out)
		for _, part := range parts[:len(parts)-1] {
			next, exists := to[part].(map[string]any)
			if !exists {
				next = map[string]any{}
				to[part] = next
			}
			to = next
		}
		to[parts[len(parts)-1]] = cloneAny(value)
	}
	return out
}

func excludeFields(doc models.Document, fields map[string]int) models.Document {
	out := doc.Clone()
	for field := range fields {
		parts := strings.Split(field, ".")
		parent, ok := walk(map[string]any(out), parts[:len(parts)-1])
		if !ok {
			continue
		}
		if obj, isObject := asObject(parent); isObject {
			delete(obj, parts[len(parts)-1])
		}
	}
	return out
}

func walk(current any, parts []string) (any, bool) {
	for _, part := range parts {
		obj, ok := asObject(current)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func cloneAny(v any) any {
	doc := models.Document{"v": v}.Clone()
	return doc["v"]
}
