// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package selector

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/MKhiriev/go-doc-keeper/models"
)

type predicate func(doc map[string]any) bool

type valuePredicate func(values []any) bool

func compileDocument(sel map[string]any) (predicate, error) {
	preds := make([]predicate, 0, len(sel))
	for key, cond := range sel {
		var (
			pred predicate
			err  error
		)
		switch key {
		case "$and", "$or", "$nor":
			pred, err = compileLogical(key, cond)
		default:
			if strings.HasPrefix(key, "$") {
				return nil, fmt.Errorf("%w: unknown top-level operator %s", models.ErrInvalidArgument, key)
			}
			pred, err = compileField(key, cond)
		}
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}

	return func(doc map[string]any) bool {
		for _, pred := range preds {
			if !pred(doc) {
				return false
			}
		}
		return true
	}, nil
}

func compileLogical(op string, cond any) (predicate, error) {
	clauses, ok := cond.([]any)
	if !ok {
		if typed, isTyped := cond.([]models.Selector); isTyped {
			for _, c := range typed {
				clauses = append(clauses, map[string]any(c))
			}
		} else if typed, isTyped := cond.([]map[string]any); isTyped {
			for _, c := range typed {
				clauses = append(clauses, c)
			}
		} else {
			return nil, fmt.Errorf("%w: %s expects an array", models.ErrInvalidArgument, op)
		}
	}
	if len(clauses) == 0 {
		return nil, fmt.Errorf("%w: %s expects a non-empty array", models.ErrInvalidArgument, op)
	}

	preds := make([]predicate, 0, len(clauses))
	for _, clause := range clauses {
		sub, ok := asObject(clause)
		if !ok {
			return nil, fmt.Errorf("%w: %s clause must be an object", models.ErrInvalidArgument, op)
		}
		pred, err := compileDocument(sub)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}

	return func(doc map[string]any) bool {
		switch op {
		case "$and":
			for _, pred := range preds {
				if !pred(doc) {
					return false
				}
			}
			return true
		case "$or":
			for _, pred := range preds {
				if pred(doc) {
					return true
				}
			}
			return false
		default: // $nor
			for _, pred := range preds {
				if pred(doc) {
					return false
				}
			}
			return true
		}
	}, nil
}

func compileField(path string, cond any) (predicate, error) {
	valuePred, err := compileCondition(cond)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", path, err)
	}
	return func(doc map[string]any) bool {
		return valuePred(lookup(doc, path))
	}, nil
}

// compileCondition compiles either an operator object ({"$gt": 1}) or a
// literal to compare for equality.
func compileCondition(cond any) (valuePredicate, error) {
	ops, ok := asObject(cond)
	if !ok || !isOperatorObject(ops) {
		return equals(cond), nil
	}

	preds := make([]valuePredicate, 0, len(ops))
	for op, arg := range ops {
		pred, err := compileOperator(op, arg, ops)
		if err != nil {
			return nil, err
		}
		if pred != nil {
			preds = append(preds, pred)
		}
	}
	return func(values []any) bool {
		for _, pred := range preds {
			if !pred(values) {
				return false
			}
		}
		return true
	}, nil
}

func compileOperator(op string, arg any, siblings map[string]any) (valuePredicate, error) {
	switch op {
	case "$eq":
		return equals(arg), nil
	case "$ne":
		eq := equals(arg)
		return func(values []any) bool { return !eq(values) }, nil
	case "$gt", "$gte", "$lt", "$lte":
		return ordered(op, arg), nil
	case "$in", "$nin":
		list, ok := asArray(arg)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects an array", models.ErrInvalidArgument, op)
		}
		in := func(values []any) bool {
			for _, candidate := range list {
				if equals(candidate)(values) {
					return true
				}
			}
			return false
		}
		if op == "$nin" {
			return func(values []any) bool { return !in(values) }, nil
		}
		return in, nil
	case "$exists":
		want, ok := arg.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: $exists expects a boolean", models.ErrInvalidArgument)
		}
		return func(values []any) bool { return (len(values) > 0) == want }, nil
	case "$not":
		inner, err := compileCondition(arg)
		if err != nil {
			return nil, err
		}
		return func(values []any) bool { return !inner(values) }, nil
	case "$size":
		size, ok := toFloat(arg)
		if !ok {
			return nil, fmt.Errorf("%w: $size expects a number", models.ErrInvalidArgument)
		}
		return func(values []any) bool {
			for _, v := range values {
				if list, isList := v.([]any); isList && float64(len(list)) == size {
					return true
				}
			}
			return false
		}, nil
	case "$regex":
		pattern, ok := arg.(string)
		if !ok {
			return nil, fmt.Errorf("%w: $regex expects a string", models.ErrInvalidArgument)
		}
		if flags, hasFlags := siblings["$options"].(string); hasFlags && flags != "" {
			pattern = "(?" + flags + ")" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: $regex: %w", models.ErrInvalidArgument, err)
		}
		return func(values []any) bool {
			for _, v := range expandArrays(values) {
				if s, isString := v.(string); isString && re.MatchString(s) {
					return true
				}
			}
			return false
		}, nil
	case "$options":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown operator %s", models.ErrInvalidArgument, op)
	}
}

// equals matches a missing field against nil, an array field when any of its
// elements or the array itself equals want.
func equals(want any) valuePredicate {
	return func(values []any) bool {
		if len(values) == 0 {
			return want == nil
		}
		for _, v := range values {
			if compareValues(v, want) == 0 && sameKind(v, want) {
				return true
			}
			if list, ok := v.([]any); ok {
				for _, item := range list {
					if compareValues(item, want) == 0 && sameKind(item, want) {
						return true
					}
				}
			}
		}
		return false
	}
}

func ordered(op string, arg any) valuePredicate {
	return func(values []any) bool {
		for _, v := range expandArrays(values) {
			if typeRank(v) != typeRank(arg) {
				continue
			}
			c := compareValues(v, arg)
			switch op {
			case "$gt":
				if c > 0 {
					return true
				}
			case "$gte":
				if c >= 0 {
					return true
				}
			case "$lt":
				if c < 0 {
					return true
				}
			case "$lte":
				if c <= 0 {
					return true
				}
			}
		}
		return false
	}
}

func expandArrays(values []any) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		if list, ok := v.([]any); ok {
			out = append(out, list...)
			continue
		}
		out = append(out, v)
	}
	return out
}

func isOperatorObject(obj map[string]any) bool {
	if len(obj) == 0 {
		return false
	}
	for key := range obj {
		if !strings.HasPrefix(key, "$") {
			return false
		}
	}
	return true
}

func asObject(v any) (map[string]any, bool) {
	switch obj := v.(type) {
	case map[string]any:
		return obj, true
	case models.Document:
		return obj, true
	case models.Selector:
		return obj, true
	default:
		return nil, false
	}
}

func asArray(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(list))
		for i, n := range list {
			out[i] = n
		}
		return out, true
	case []float64:
		out := make([]any, len(list))
		for i, n := range list {
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}
