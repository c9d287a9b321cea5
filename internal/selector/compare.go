// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package selector

import (
	"cmp"
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"github.com/MKhiriev/go-doc-keeper/models"
)

// lookup resolves a dotted path. Arrays met on the way without a numeric
// index fan out to every element. A missing path yields no values.
func lookup(doc map[string]any, path string) []any {
	return lookupParts(doc, strings.Split(path, "."))
}

func lookupParts(current any, parts []string) []any {
	if len(parts) == 0 {
		return []any{current}
	}

	if obj, ok := asObject(current); ok {
		next, found := obj[parts[0]]
		if !found {
			return nil
		}
		return lookupParts(next, parts[1:])
	}

	if list, ok := current.([]any); ok {
		if idx, err := strconv.Atoi(parts[0]); err == nil {
			if idx < 0 || idx >= len(list) {
				return nil
			}
			return lookupParts(list[idx], parts[1:])
		}
		var out []any
		for _, item := range list {
			if _, isObject := asObject(item); isObject {
				out = append(out, lookupParts(item, parts)...)
			}
		}
		return out
	}

	return nil
}

// typeRank follows the MongoDB cross-type order:
// null < numbers < strings < objects < arrays < booleans.
func typeRank(v any) int {
	if _, ok := toFloat(v); ok {
		return 1
	}
	switch v.(type) {
	case nil:
		return 0
	case string:
		return 2
	case map[string]any, models.Document, models.Selector:
		return 3
	case []any:
		return 4
	case bool:
		return 5
	default:
		return 6
	}
}

func sameKind(a, b any) bool {
	return typeRank(a) == typeRank(b)
}

func compareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}

	switch ra {
	case 0:
		return 0
	case 1:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		return cmp.Compare(fa, fb)
	case 2:
		return strings.Compare(a.(string), b.(string))
	case 3:
		oa, _ := asObject(a)
		ob, _ := asObject(b)
		return compareObjects(oa, ob)
	case 4:
		la, lb := a.([]any), b.([]any)
		for i := 0; i < len(la) && i < len(lb); i++ {
			if c := compareValues(la[i], lb[i]); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(la), len(lb))
	case 5:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		default:
			return 1
		}
	default:
		sa, _ := json.Marshal(a)
		sb, _ := json.Marshal(b)
		return strings.Compare(string(sa), string(sb))
	}
}

func compareObjects(a, b map[string]any) int {
	keysA := sortedKeys(a)
	keysB := sortedKeys(b)
	for i := 0; i < len(keysA) && i < len(keysB); i++ {
		if c := strings.Compare(keysA[i], keysB[i]); c != 0 {
			return c
		}
		if c := compareValues(a[keysA[i]], b[keysB[i]]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(keysA), len(keysB))
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := strconv.ParseFloat(n.String(), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
