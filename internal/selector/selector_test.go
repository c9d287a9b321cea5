package selector

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-doc-keeper/models"
)

func decodeSelector(t *testing.T, raw string) models.Selector {
	t.Helper()
	var sel models.Selector
	require.NoError(t, json.Unmarshal([]byte(raw), &sel))
	return sel
}

func TestEvaluator_Compile(t *testing.T) {
	doc := models.Document{
		"_id":   "a1",
		"name":  "widget",
		"size":  float64(4),
		"tags":  []any{"red", "blue"},
		"owner": map[string]any{"name": "kim", "age": float64(30)},
		"items": []any{map[string]any{"sku": "x"}, map[string]any{"sku": "y"}},
		"done":  false,
	}

	tests := []struct {
		name     string
		selector string
		want     bool
	}{
		{"empty", `{}`, true},
		{"literal equality", `{"name": "widget"}`, true},
		{"literal mismatch", `{"name": "gadget"}`, false},
		{"dotted path", `{"owner.name": "kim"}`, true},
		{"array element equality", `{"tags": "red"}`, true},
		{"array fan-out", `{"items.sku": "y"}`, true},
		{"array index", `{"tags.1": "blue"}`, true},
		{"$gt", `{"size": {"$gt": 3}}`, true},
		{"$gte and $lt", `{"size": {"$gte": 4, "$lt": 5}}`, true},
		{"$lte false", `{"size": {"$lte": 3}}`, false},
		{"$gt across types", `{"name": {"$gt": 3}}`, false},
		{"$ne", `{"name": {"$ne": "gadget"}}`, true},
		{"$ne missing field", `{"missing": {"$ne": 1}}`, true},
		{"$in", `{"tags": {"$in": ["green", "blue"]}}`, true},
		{"$nin", `{"name": {"$nin": ["widget"]}}`, false},
		{"$exists true", `{"owner.age": {"$exists": true}}`, true},
		{"$exists false", `{"missing": {"$exists": false}}`, true},
		{"null matches missing", `{"missing": null}`, true},
		{"$not", `{"size": {"$not": {"$gt": 10}}}`, true},
		{"$and", `{"$and": [{"name": "widget"}, {"size": 4}]}`, true},
		{"$or", `{"$or": [{"name": "gadget"}, {"size": 4}]}`, true},
		{"$nor", `{"$nor": [{"name": "gadget"}, {"size": 4}]}`, false},
		{"$size", `{"tags": {"$size": 2}}`, true},
		{"$regex", `{"name": {"$regex": "^WID", "$options": "i"}}`, true},
		{"bool equality", `{"done": false}`, true},
		{"object equality", `{"owner": {"name": "kim", "age": 30}}`, true},
	}

	e := New(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matcher, err := e.Compile(decodeSelector(t, tt.selector))
			require.NoError(t, err)
			assert.Equal(t, tt.want, matcher(doc))
		})
	}
}

func TestEvaluator_CompileErrors(t *testing.T) {
	tests := []string{
		`{"size": {"$between": [1, 2]}}`,
		`{"$or": {"a": 1}}`,
		`{"$or": []}`,
		`{"tags": {"$in": "red"}}`,
		`{"a": {"$exists": "yes"}}`,
		`{"$where": "1"}`,
		`{"a": {"$regex": "("}}`,
	}

	e := New(4)
	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			_, err := e.Compile(decodeSelector(t, raw))
			assert.ErrorIs(t, err, models.ErrInvalidArgument)
		})
	}
}

func TestEvaluator_CompileIsCached(t *testing.T) {
	e := New(2)
	sel := models.Selector{"a": 1}

	_, err := e.Compile(sel)
	require.NoError(t, err)
	assert.Equal(t, 1, e.cache.Len())

	_, err = e.Compile(models.Selector{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, 1, e.cache.Len())
}

func TestEvaluator_CompileSort(t *testing.T) {
	docs := []models.Document{
		{"_id": "1", "a": 2, "b": "x"},
		{"_id": "2", "a": 1, "b": "y"},
		{"_id": "3", "a": 2, "b": "z"},
		{"_id": "4", "b": "w"},
	}

	e := New(0)
	got, _, err := e.Process(docs, nil, models.FindOptions{
		Sort: models.Sort{{Field: "a", Desc: true}, {Field: "b"}},
	})
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, doc := range got {
		ids[i] = doc.ID()
	}
	assert.Equal(t, []string{"1", "3", "2", "4"}, ids)
	assert.Nil(t, e.CompileSort(nil))
}

func TestEvaluator_Process(t *testing.T) {
	docs := []models.Document{
		{"_id": "1", "n": 1, "secret": "s"},
		{"_id": "2", "n": 2, "secret": "s"},
		{"_id": "3", "n": 3, "secret": "s"},
		{"_id": "4", "n": 4, "secret": "s"},
	}

	e := New(0)
	got, matched, err := e.Process(docs, models.Selector{"n": map[string]any{"$gte": 2}}, models.FindOptions{
		Sort:   models.Sort{{Field: "n"}},
		Skip:   1,
		Limit:  1,
		Fields: map[string]int{"secret": 0},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, matched)
	assert.Equal(t, []models.Document{{"_id": "3", "n": 3}}, got)
	assert.Equal(t, "s", docs[2]["secret"], "input must not be modified")
}

func TestPage(t *testing.T) {
	docs := []models.Document{{"_id": "1"}, {"_id": "2"}, {"_id": "3"}}

	assert.Len(t, Page(docs, 0, 0), 3)
	assert.Len(t, Page(docs, 2, 0), 1)
	assert.Empty(t, Page(docs, 5, 0))
	assert.Len(t, Page(docs, 1, 1), 1)
}

func TestFilterFields(t *testing.T) {
	doc := models.Document{"_id": "1", "_rev": 2, "a": map[string]any{"b": 1, "c": 2}, "d": 3}

	include := FilterFields([]models.Document{doc}, map[string]int{"a.b": 1})
	assert.Equal(t, models.Document{"_id": "1", "a": map[string]any{"b": 1}}, include[0])

	noID := FilterFields([]models.Document{doc}, map[string]int{"d": 1, "_id": 0})
	assert.Equal(t, models.Document{"d": 3}, noID[0])

	exclude := FilterFields([]models.Document{doc}, map[string]int{"a.c": 0, "d": 0})
	assert.Equal(t, models.Document{"_id": "1", "_rev": 2, "a": map[string]any{"b": 1}}, exclude[0])
	assert.Contains(t, doc, "d")
}

func TestKeepsRevision(t *testing.T) {
	assert.True(t, KeepsRevision(nil))
	assert.True(t, KeepsRevision(map[string]int{"a": 1, "_rev": 1}))
	assert.False(t, KeepsRevision(map[string]int{"a": 1}))
	assert.True(t, KeepsRevision(map[string]int{"a": 0}))
	assert.False(t, KeepsRevision(map[string]int{"_rev": 0}))
}
