// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-doc-keeper/internal/logger"
)

// DefaultUploadInterval is used when no positive interval is configured.
const DefaultUploadInterval = time.Minute

// UploadWorker calls Uploader.Upload on a ticker. A failed upload is logged
// and retried on the next tick; pending writes stay pending until then.
type UploadWorker struct {
	uploader Uploader
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	trigger chan struct{}

	logger *logger.Logger
}

// NewUploadWorker creates an idle worker; Run starts it.
func NewUploadWorker(uploader Uploader, interval time.Duration, log *logger.Logger) *UploadWorker {
	if interval <= 0 {
		interval = DefaultUploadInterval
	}
	return &UploadWorker{
		uploader: uploader,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		logger:   log,
	}
}

// Run implements [Worker]. A running job is stopped first.
func (w *UploadWorker) Run(ctx context.Context) {
	w.Stop()

	w.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		t := time.NewTicker(w.interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
			case <-w.trigger:
			}
			w.upload(jobCtx)
		}
	}()
}

// Trigger asks a running worker to upload now instead of waiting for the
// next tick. Triggers arriving during an upload are coalesced into one.
func (w *UploadWorker) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Stop implements [Worker].
func (w *UploadWorker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

func (w *UploadWorker) upload(ctx context.Context) {
	start := time.Now()
	if err := w.uploader.Upload(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Err(err).Str("func", "UploadWorker.upload").Msg("upload failed, retrying on next tick")
		return
	}
	w.logger.Debug().Str("func", "UploadWorker.upload").Dur("duration", time.Since(start)).Msg("pending writes uploaded")
}
