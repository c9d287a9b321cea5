// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/go-doc-keeper/internal/utils"
	"github.com/MKhiriev/go-doc-keeper/models"
)

// find serves GET {collection}. Matching documents are returned as a JSON
// array and the total count before skip and limit in the count header.
func (h *Handler) find(w http.ResponseWriter, r *http.Request) {
	sel, opts, err := parseFindQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	docs, count, err := h.services.DocumentService.Find(r.Context(), chi.URLParam(r, "collection"), sel, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set(models.TotalCountHeader, strconv.Itoa(count))
	utils.WriteJSON(w, docs, http.StatusOK)
}

// postFind serves POST {collection}/find. The result is shard encoded with
// every shard present, so the client decodes it the same way as a quickfind
// answer against an empty local result.
func (h *Handler) postFind(w http.ResponseWriter, r *http.Request) {
	var req models.FindRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	h.writeEncoded(w, r, req, nil)
}

// quickfind serves POST {collection}/quickfind. Only shards whose digest
// differs from the client's are returned.
func (h *Handler) quickfind(w http.ResponseWriter, r *http.Request) {
	var req models.QuickfindRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Quickfind == nil {
		req.Quickfind = map[string]string{}
	}

	h.writeEncoded(w, r, req.FindRequest, req.Quickfind)
}

func (h *Handler) writeEncoded(w http.ResponseWriter, r *http.Request, req models.FindRequest, digests map[string]string) {
	response, count, err := h.services.DocumentService.Quickfind(r.Context(), chi.URLParam(r, "collection"), req.Selector, req.Options(), digests)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if response == nil {
		response = models.QuickfindResponse{}
	}

	w.Header().Set(models.TotalCountHeader, strconv.Itoa(count))
	utils.WriteJSON(w, response, http.StatusOK)
}

// insert serves POST {collection}: a document written without a base.
func (h *Handler) insert(w http.ResponseWriter, r *http.Request) {
	var doc models.Document
	if err := decodeJSON(r, &doc); err != nil {
		writeError(w, r, err)
		return
	}

	clientID, _ := utils.GetClientIDFromContext(r.Context())
	stored, err := h.services.DocumentService.Insert(r.Context(), chi.URLParam(r, "collection"), doc, clientID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, stored, http.StatusOK)
}

// patch serves PATCH {collection}: a document plus the base it was derived
// from, merged into the server copy.
func (h *Handler) patch(w http.ResponseWriter, r *http.Request) {
	var req models.UpsertRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	clientID, _ := utils.GetClientIDFromContext(r.Context())
	merged, err := h.services.DocumentService.Patch(r.Context(), chi.URLParam(r, "collection"), req.Doc, req.Base, clientID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, merged, http.StatusOK)
}

// remove serves DELETE {collection}/{id}.
func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	clientID, _ := utils.GetClientIDFromContext(r.Context())
	if err = h.services.DocumentService.Remove(r.Context(), chi.URLParam(r, "collection"), id, clientID); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pathID returns the unescaped {id} segment. chi matches on the raw path when
// the request carries escaped characters.
func pathID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if r.URL.RawPath == "" {
		return id, nil
	}
	unescaped, err := url.PathUnescape(id)
	if err != nil {
		return "", fmt.Errorf("%w: id: %w", ErrInvalidQuery, err)
	}
	return unescaped, nil
}

// parseFindQuery decodes the GET find parameters: selector, sort and fields
// as JSON, limit and skip as numbers.
func parseFindQuery(query url.Values) (models.Selector, models.FindOptions, error) {
	var (
		sel  models.Selector
		opts models.FindOptions
	)

	if raw := query.Get("selector"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &sel); err != nil {
			return nil, opts, fmt.Errorf("%w: selector: %w", ErrInvalidQuery, err)
		}
	}
	if raw := query.Get("sort"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts.Sort); err != nil {
			return nil, opts, fmt.Errorf("%w: sort: %w", ErrInvalidQuery, err)
		}
	}
	if raw := query.Get("fields"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts.Fields); err != nil {
			return nil, opts, fmt.Errorf("%w: fields: %w", ErrInvalidQuery, err)
		}
	}

	var err error
	if opts.Limit, err = intParam(query, "limit"); err != nil {
		return nil, opts, err
	}
	if opts.Skip, err = intParam(query, "skip"); err != nil {
		return nil, opts, err
	}

	return sel, opts, nil
}

func intParam(query url.Values, name string) (int, error) {
	raw := query.Get(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidQuery, name, err)
	}
	return value, nil
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	return nil
}
