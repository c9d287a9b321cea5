// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-doc-keeper/internal/adapter"
	"github.com/MKhiriev/go-doc-keeper/internal/logger"
	"github.com/MKhiriev/go-doc-keeper/internal/metrics"
	"github.com/MKhiriev/go-doc-keeper/internal/selector"
	"github.com/MKhiriev/go-doc-keeper/models"
)

// Result is one delivery of a hybrid find. Count is taken before skip, limit
// and field projection. Final is false only for the interim local result.
type Result struct {
	Docs  []models.Document
	Count int
	Final bool
}

// HybridCollection pairs a local collection with its remote counterpart.
// Reads are answered locally first and reconciled with the remote; writes go
// to the local collection and are pushed by Upload.
type HybridCollection struct {
	name    string
	local   LocalCollection
	remote  adapter.RemoteCollection
	options models.HybridOptions

	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewHybridCollection builds a hybrid collection with options as its
// per-collection defaults.
func NewHybridCollection(local LocalCollection, remote adapter.RemoteCollection, options models.HybridOptions, m *metrics.Metrics, log *logger.Logger) *HybridCollection {
	return &HybridCollection{
		name:    local.Name(),
		local:   local,
		remote:  remote,
		options: options,
		metrics: m,
		logger:  log.WithCollection(local.Name()),
	}
}

// Name returns the collection name.
func (c *HybridCollection) Name() string {
	return c.name
}

// Options returns the per-collection defaults.
func (c *HybridCollection) Options() models.HybridOptions {
	return c.options
}

type remoteFind struct {
	docs  []models.Document
	count int
	err   error
}

// Find answers a query from the local collection and the remote. deliver is
// called synchronously at most twice: once with the interim local result
// when Interim is set, and once with the final result unless it would repeat
// the interim one. Find returns after the last delivery.
//
// With Interim set, remote failures and timeouts are logged and swallowed.
// Without it they fall back to the local result when UseLocalOnRemoteError
// is set and are returned otherwise.
func (c *HybridCollection) Find(ctx context.Context, sel models.Selector, opts models.FindOptions, deliver func(Result), overrides ...models.HybridOption) error {
	o := c.options.Apply(overrides...)

	localDocs, localCount, err := c.local.Find(ctx, sel, opts)
	if err != nil {
		c.logger.Err(err).Str("func", "HybridCollection.Find").Msg("local find failed")
		return err
	}

	if o.Interim {
		deliver(Result{Docs: localDocs, Count: localCount.Total()})
		c.metrics.FindDelivered(c.name, metrics.SourceInterim)
	}

	remoteOpts := opts
	if o.CacheFind {
		remoteOpts = opts.WithoutFields()
	}

	// a find that may outlive the caller keeps running for the late cache
	// refresh; the adapter's request timeout still bounds it.
	remoteCtx := ctx
	if o.Timeout > 0 && o.CacheFind {
		remoteCtx = context.WithoutCancel(ctx)
	}

	done := make(chan remoteFind, 1)
	go func() {
		docs, count, err := c.remote.Find(remoteCtx, sel, remoteOpts, localDocs)
		done <- remoteFind{docs: docs, count: count, err: err}
	}()

	var timeout <-chan time.Time
	if o.Timeout > 0 {
		timer := time.NewTimer(o.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case res := <-done:
		if res.err != nil {
			return c.remoteFailed(ctx, sel, opts, o, localDocs, localCount, remoteFault(res.err), false, deliver)
		}
		return c.reconcile(ctx, sel, opts, o, localDocs, res, deliver)
	case <-timeout:
		if o.CacheFind {
			go c.cacheLate(context.WithoutCancel(ctx), done, sel, opts)
		}
		err = fmt.Errorf("%w: no answer within %s", models.ErrTimeout, o.Timeout)
		return c.remoteFailed(ctx, sel, opts, o, localDocs, localCount, err, true, deliver)
	}
}

// reconcile overlays pending local writes on the remote result, caches the
// raw remote result and delivers the final one.
func (c *HybridCollection) reconcile(ctx context.Context, sel models.Selector, opts models.FindOptions, o models.HybridOptions, localDocs []models.Document, res remoteFind, deliver func(Result)) error {
	removes, err := c.local.PendingRemoves(ctx)
	if err != nil {
		return err
	}
	upserts, err := c.local.PendingUpserts(ctx)
	if err != nil {
		return err
	}

	removed := make(map[string]struct{}, len(removes))
	for _, id := range removes {
		removed[id] = struct{}{}
	}

	data := make([]models.Document, 0, len(res.docs)+len(upserts))
	for _, doc := range res.docs {
		if _, ok := removed[doc.ID()]; !ok {
			data = append(data, doc)
		}
	}
	count := res.count

	switch {
	case len(upserts) > 0:
		upserted := make(map[string]struct{}, len(upserts))
		for _, upsert := range upserts {
			upserted[upsert.Doc.ID()] = struct{}{}
		}
		merged := data[:0]
		for _, doc := range data {
			if _, ok := upserted[doc.ID()]; !ok {
				merged = append(merged, doc)
			}
		}
		for _, upsert := range upserts {
			merged = append(merged, upsert.Doc)
		}

		data, count, err = c.local.Evaluator().Process(merged, sel, opts)
		if err != nil {
			return err
		}
	case o.CacheFind && opts.HasFields():
		data = selector.FilterFields(data, opts.Fields)
	}

	if o.Interim && models.EqualDocuments(localDocs, data) {
		return nil
	}

	if o.CacheFind {
		if err = c.local.Cache(ctx, res.docs, sel, opts.WithoutFields()); err != nil {
			c.logger.Err(err).Str("func", "HybridCollection.reconcile").Msg("failed to cache remote result")
			return err
		}
	}

	deliver(Result{Docs: data, Count: count, Final: true})
	c.metrics.FindDelivered(c.name, metrics.SourceRemote)
	return nil
}

func (c *HybridCollection) remoteFailed(ctx context.Context, sel models.Selector, opts models.FindOptions, o models.HybridOptions, localDocs []models.Document, localCount models.Count, err error, timedOut bool, deliver func(Result)) error {
	c.metrics.RemoteFailed(c.name, "find")
	c.logger.Warn().Err(err).Str("func", "HybridCollection.Find").Bool("timed_out", timedOut).Msg("remote find failed")

	if o.Interim {
		return nil
	}
	if !o.UseLocalOnRemoteError {
		return err
	}

	if timedOut {
		var lerr error
		localDocs, localCount, lerr = c.local.Find(ctx, sel, opts)
		if lerr != nil {
			return lerr
		}
	}

	deliver(Result{Docs: localDocs, Count: localCount.Total(), Final: true})
	c.metrics.FindDelivered(c.name, metrics.SourceLocal)
	return nil
}

// cacheLate waits for a remote result that lost the race against the timer
// and caches it.
func (c *HybridCollection) cacheLate(ctx context.Context, done <-chan remoteFind, sel models.Selector, opts models.FindOptions) {
	res := <-done
	if res.err != nil {
		return
	}

	c.metrics.LateRemoteResult(c.name)
	if err := c.local.Cache(ctx, res.docs, sel, opts.WithoutFields()); err != nil {
		c.logger.Err(err).Str("func", "HybridCollection.cacheLate").Msg("failed to cache late remote result")
	}
}

// FetchAll runs Find and returns the last delivered result.
func (c *HybridCollection) FetchAll(ctx context.Context, sel models.Selector, opts models.FindOptions, overrides ...models.HybridOption) (Result, error) {
	var last Result
	err := c.Find(ctx, sel, opts, func(r Result) { last = r }, overrides...)
	return last, err
}

// FindOne delivers the first matching document. A local hit is delivered
// first when Interim or Shortcut is set; with Shortcut the remote is not
// asked. The remote answer is delivered only if it differs from the local
// hit, and nil is delivered when nothing matches remotely.
func (c *HybridCollection) FindOne(ctx context.Context, sel models.Selector, opts models.FindOptions, deliver func(models.Document), overrides ...models.HybridOption) error {
	o := c.options.Apply(overrides...)

	var localDoc models.Document
	if o.Interim || o.Shortcut {
		var err error
		localDoc, err = c.local.FindOne(ctx, sel, opts)
		if err != nil {
			return err
		}
		if localDoc != nil {
			deliver(localDoc.Clone())
			if o.Shortcut {
				return nil
			}
		}
	}

	findOpts := opts
	findOpts.Limit = 0
	if _, ok := sel[models.IDField]; ok {
		findOpts.Limit = 1
	}

	return c.Find(ctx, sel, findOpts, func(r Result) {
		if len(r.Docs) == 0 {
			deliver(nil)
			return
		}
		if !localDoc.Equal(r.Docs[0]) {
			deliver(r.Docs[0])
		}
	}, append(overrides, models.WithInterim(false), models.WithCacheFind(o.CacheFindOne))...)
}

// Upsert records local writes; see LocalCollection.Upsert.
func (c *HybridCollection) Upsert(ctx context.Context, docs []models.Document, bases []models.Document) ([]models.Document, error) {
	return c.local.Upsert(ctx, docs, bases)
}

// Remove records a local delete.
func (c *HybridCollection) Remove(ctx context.Context, id string) error {
	return c.local.Remove(ctx, id)
}

func remoteFault(err error) error {
	if errors.Is(err, models.ErrRemoteFault) || errors.Is(err, models.ErrTimeout) {
		return err
	}
	return fmt.Errorf("%w: %w", models.ErrRemoteFault, err)
}
