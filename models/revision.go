// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// NewerFunc reports whether revision a is strictly newer than revision b.
// Both arguments are non-nil.
type NewerFunc func(a, b any) bool

// DefaultNewer compares numeric revisions numerically and everything else
// by its string form.
func DefaultNewer(a, b any) bool {
	af, aNum := revisionNumber(a)
	bf, bNum := revisionNumber(b)
	if aNum && bNum {
		return af > bf
	}
	return fmt.Sprint(a) > fmt.Sprint(b)
}

// HasRevision reports whether rev counts as a revision. Falsy values (nil,
// false, "", zero and NaN) do not.
func HasRevision(rev any) bool {
	switch v := rev.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	default:
		if f, ok := revisionNumber(v); ok {
			return f != 0 && !math.IsNaN(f)
		}
		return true
	}
}

// IsNewer applies the freshness rule used when refreshing cached records:
// incoming wins when either side has no revision or incoming is strictly
// newer according to newer.
func IsNewer(incoming, stored Document, newer NewerFunc) bool {
	incomingRev, _ := incoming.Rev()
	if !HasRevision(incomingRev) {
		return true
	}
	storedRev, _ := stored.Rev()
	if !HasRevision(storedRev) {
		return true
	}
	if newer == nil {
		newer = DefaultNewer
	}
	return newer(incomingRev, storedRev)
}

func revisionNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
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
