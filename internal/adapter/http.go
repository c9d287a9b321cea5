package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-doc-keeper/internal/config"
	"github.com/MKhiriev/go-doc-keeper/internal/logger"
	"github.com/MKhiriev/go-doc-keeper/internal/quickfind"
	"github.com/MKhiriev/go-doc-keeper/internal/selector"
	"github.com/MKhiriev/go-doc-keeper/internal/utils"
	"github.com/MKhiriev/go-doc-keeper/models"
)

const (
	// postFindThreshold is the encoded query size above which a find is sent
	// as POST {collection}/find when post find is enabled.
	postFindThreshold = 500

	// TotalCountHeader carries the number of matching server documents
	// before skip and limit.
	TotalCountHeader = models.TotalCountHeader
)

type findMethod int

const (
	findGet findMethod = iota
	findPost
	findQuickfind
)

type httpRemoteAdapter struct {
	client *utils.HTTPClient
	eval   *selector.Evaluator

	useQuickfind bool
	usePostFind  bool

	mu          sync.RWMutex
	token       string
	collections map[string]*httpRemoteCollection

	logger *logger.Logger
}

// NewHTTPRemoteAdapter constructs an HTTP/REST implementation of [RemoteDB].
// It normalises and validates the base URL from adapterCfg.HTTPAddress and
// configures the underlying HTTP client with the resolved base URL and
// request timeout. adapterCfg.ClientToken becomes the initial client token.
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be parsed as a
// valid URL.
func NewHTTPRemoteAdapter(adapterCfg config.ClientAdapter, logger *logger.Logger) (RemoteDB, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}

	return &httpRemoteAdapter{
		client:       utils.NewHTTPClient(baseURL, adapterCfg.RequestTimeout),
		eval:         selector.New(selector.DefaultCacheSize),
		useQuickfind: adapterCfg.UseQuickfind,
		usePostFind:  adapterCfg.UsePostFind,
		token:        strings.TrimSpace(adapterCfg.ClientToken),
		collections:  make(map[string]*httpRemoteCollection),
		logger:       logger,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// Collection implements [RemoteDB]. The collection lives at
// {base URL}/{name}.
func (h *httpRemoteAdapter) Collection(name string) RemoteCollection {
	h.mu.Lock()
	defer h.mu.Unlock()

	if col, ok := h.collections[name]; ok {
		return col
	}
	col := &httpRemoteCollection{
		adapter: h,
		name:    name,
		path:    "/" + url.PathEscape(name),
		logger:  h.logger.WithCollection(name),
	}
	h.collections[name] = col
	return col
}

// CollectionNames implements [RemoteDB].
func (h *httpRemoteAdapter) CollectionNames() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.collections))
	for name := range h.collections {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SetToken implements [RemoteDB]. It stores token (whitespace-trimmed) for
// use as the client parameter of all subsequent requests.
func (h *httpRemoteAdapter) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

// Token implements [RemoteDB].
func (h *httpRemoteAdapter) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

type httpRemoteCollection struct {
	adapter *httpRemoteAdapter
	name    string
	path    string
	logger  *logger.Logger
}

// Find implements [RemoteCollection].
//
// The wire method is chosen per call: POST {collection}/quickfind when
// quickfind is enabled and the query is eligible for localDocs, POST
// {collection}/find when post find is enabled and the encoded query is
// longer than postFindThreshold, and GET {collection} otherwise.
func (c *httpRemoteCollection) Find(ctx context.Context, sel models.Selector, opts models.FindOptions, localDocs []models.Document) ([]models.Document, int, error) {
	if sel == nil {
		sel = models.Selector{}
	}

	method, err := c.findMethod(sel, opts, localDocs)
	if err != nil {
		return nil, 0, err
	}

	switch method {
	case findQuickfind:
		body := models.QuickfindRequest{
			FindRequest: findRequest(sel, opts),
			Quickfind:   quickfind.EncodeRequest(localDocs),
		}
		return c.findEncoded(ctx, "/quickfind", body, opts, localDocs)
	case findPost:
		return c.findEncoded(ctx, "/find", findRequest(sel, opts), opts, nil)
	default:
		return c.findGet(ctx, sel, opts)
	}
}

func (c *httpRemoteCollection) findMethod(sel models.Selector, opts models.FindOptions, localDocs []models.Document) (findMethod, error) {
	if c.adapter.useQuickfind && quickfind.Eligible(opts, len(localDocs) > 0) {
		return findQuickfind, nil
	}
	if !c.adapter.usePostFind {
		return findGet, nil
	}

	encoded, err := json.Marshal(struct {
		Selector models.Selector `json:"selector"`
		Sort     models.Sort     `json:"sort,omitempty"`
		Fields   map[string]int  `json:"fields,omitempty"`
	}{sel, opts.Sort, opts.Fields})
	if err != nil {
		return findGet, fmt.Errorf("%w: %w: %w", models.ErrInvalidArgument, ErrEncodingRequest, err)
	}
	if len(encoded) > postFindThreshold {
		return findPost, nil
	}
	return findGet, nil
}

func (c *httpRemoteCollection) findGet(ctx context.Context, sel models.Selector, opts models.FindOptions) ([]models.Document, int, error) {
	params, err := findParams(sel, opts)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.request(ctx).
		SetQueryParamsFromValues(params).
		Get(c.path)
	if err != nil {
		return nil, 0, mapTransportError("find request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		c.logger.Err(err).Str("func", "httpRemoteCollection.findGet").Int("status", resp.StatusCode()).Msg("remote find failed")
		return nil, 0, err
	}

	var docs []models.Document
	if err = decodeBody(resp, &docs); err != nil {
		return nil, 0, err
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, totalCount(resp, len(docs)), nil
}

// findEncoded posts body to path and reassembles the shard-encoded response
// on top of localDocs.
func (c *httpRemoteCollection) findEncoded(ctx context.Context, path string, body any, opts models.FindOptions, localDocs []models.Document) ([]models.Document, int, error) {
	resp, err := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(c.path + path)
	if err != nil {
		return nil, 0, mapTransportError("find request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		c.logger.Err(err).Str("func", "httpRemoteCollection.findEncoded").Str("path", path).Int("status", resp.StatusCode()).Msg("remote find failed")
		return nil, 0, err
	}

	var encoded models.QuickfindResponse
	if err = decodeBody(resp, &encoded); err != nil {
		return nil, 0, err
	}

	var cmp selector.Comparator
	if len(opts.Sort) > 0 {
		cmp = c.adapter.eval.CompileSort(opts.Sort)
	}
	docs := quickfind.DecodeResponse(encoded, localDocs, cmp)

	c.logger.Debug().Str("func", "httpRemoteCollection.findEncoded").Str("path", path).
		Int("shards", len(encoded)).Int("docs", len(docs)).Msg("remote find decoded")
	return docs, totalCount(resp, len(docs)), nil
}

// Upsert implements [RemoteCollection]. Without a base the document is sent
// as POST {collection}; with a base both are sent as PATCH {collection}.
func (c *httpRemoteCollection) Upsert(ctx context.Context, doc, base models.Document) (models.Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", models.ErrInvalidArgument)
	}
	if c.adapter.Token() == "" {
		return nil, ErrClientRequired
	}

	var (
		resp *resty.Response
		err  error
	)
	req := c.request(ctx).SetHeader("Content-Type", "application/json")
	if base == nil {
		resp, err = req.SetBody(doc).Post(c.path)
	} else {
		resp, err = req.SetBody(models.UpsertRequest{Doc: doc, Base: base}).Patch(c.path)
	}
	if err != nil {
		return nil, mapTransportError("upsert request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		c.logger.Err(err).Str("func", "httpRemoteCollection.Upsert").Str("id", doc.ID()).Int("status", resp.StatusCode()).Msg("remote upsert failed")
		return nil, err
	}

	var result models.Document
	if err = decodeBody(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Remove implements [RemoteCollection]. A 410 Gone response counts as
// success.
func (c *httpRemoteCollection) Remove(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", models.ErrInvalidArgument)
	}
	if c.adapter.Token() == "" {
		return ErrClientRequired
	}

	resp, err := c.request(ctx).Delete(c.path + "/" + url.PathEscape(id))
	if err != nil {
		return mapTransportError("remove request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		if errors.Is(err, models.ErrGone) {
			return nil
		}
		c.logger.Err(err).Str("func", "httpRemoteCollection.Remove").Str("id", id).Int("status", resp.StatusCode()).Msg("remote remove failed")
		return err
	}
	return nil
}

// request starts a request carrying the client token, when one is set.
func (c *httpRemoteCollection) request(ctx context.Context) *resty.Request {
	req := c.adapter.client.R().SetContext(ctx)
	if token := c.adapter.Token(); token != "" {
		req.SetQueryParam("client", token)
	}
	return req
}

func findRequest(sel models.Selector, opts models.FindOptions) models.FindRequest {
	return models.FindRequest{
		Selector: sel,
		Sort:     opts.Sort,
		Limit:    opts.Limit,
		Skip:     opts.Skip,
		Fields:   opts.Fields,
	}
}

// findParams encodes a query as GET parameters: selector, sort and fields
// as JSON, limit and skip as numbers.
func findParams(sel models.Selector, opts models.FindOptions) (url.Values, error) {
	params := url.Values{}

	encodedSelector, err := json.Marshal(sel)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", models.ErrInvalidArgument, ErrEncodingRequest, err)
	}
	params.Set("selector", string(encodedSelector))

	if len(opts.Sort) > 0 {
		encodedSort, err := json.Marshal(opts.Sort)
		if err != nil {
			return nil, fmt.Errorf("%w: %w: %w", models.ErrInvalidArgument, ErrEncodingRequest, err)
		}
		params.Set("sort", string(encodedSort))
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Skip > 0 {
		params.Set("skip", strconv.Itoa(opts.Skip))
	}
	if opts.HasFields() {
		encodedFields, err := json.Marshal(opts.Fields)
		if err != nil {
			return nil, fmt.Errorf("%w: %w: %w", models.ErrInvalidArgument, ErrEncodingRequest, err)
		}
		params.Set("fields", string(encodedFields))
	}
	return params, nil
}

// decodeBody unmarshals a JSON response body into v. An empty body leaves v
// untouched.
func decodeBody(resp *resty.Response, v any) error {
	body := resp.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %w", models.NewRemoteError(resp.StatusCode(), ErrDecodingResponse), err)
	}
	return nil
}

func totalCount(resp *resty.Response, fallback int) int {
	count, err := strconv.Atoi(resp.Header().Get(TotalCountHeader))
	if err != nil || count < 0 {
		return fallback
	}
	return count
}
