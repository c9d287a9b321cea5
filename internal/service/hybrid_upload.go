package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/MKhiriev/go-doc-keeper/internal/metrics"
	"github.com/MKhiriev/go-doc-keeper/models"
)

// Upload pushes every pending upsert, then every pending remove, one at a
// time. Gone documents are dropped locally and skipped. A forbidden write is
// dropped locally and stops the upload; any other failure stops it at once.
func (c *HybridCollection) Upload(ctx context.Context, overrides ...models.HybridOption) error {
	o := c.options.Apply(overrides...)

	upserts, err := c.local.PendingUpserts(ctx)
	if err != nil {
		return err
	}
	if o.SortUpserts != nil {
		slices.SortStableFunc(upserts, func(a, b models.PendingUpsert) int {
			return o.SortUpserts(a.Doc, b.Doc)
		})
	}

	for _, upsert := range upserts {
		if err = c.uploadUpsert(ctx, upsert); err != nil {
			return err
		}
	}

	removes, err := c.local.PendingRemoves(ctx)
	if err != nil {
		return err
	}
	for _, id := range removes {
		if err = c.uploadRemove(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (c *HybridCollection) uploadUpsert(ctx context.Context, upsert models.PendingUpsert) error {
	id := upsert.Doc.ID()
	remoteDoc, err := c.remote.Upsert(ctx, upsert.Doc, upsert.Base)
	c.metrics.Uploaded(c.name, metrics.KindUpsert, outcome(err))

	switch {
	case err == nil:
		if err = c.local.ResolveUpserts(ctx, []models.PendingUpsert{upsert}); err != nil {
			return err
		}
		if remoteDoc == nil {
			return c.dropLocal(ctx, id)
		}
		return c.local.CacheOne(ctx, remoteDoc)
	case errors.Is(err, models.ErrGone):
		c.logger.Info().Str("func", "HybridCollection.uploadUpsert").Str("id", id).Msg("remote document gone, dropping local copy")
		return c.dropLocal(ctx, id)
	case errors.Is(err, models.ErrForbidden):
		c.logger.Err(err).Str("func", "HybridCollection.uploadUpsert").Str("id", id).Msg("remote rejected upsert")
		if dropErr := c.dropLocal(ctx, id); dropErr != nil {
			return errors.Join(fmt.Errorf("upload upsert %s: %w", id, err), dropErr)
		}
		return fmt.Errorf("upload upsert %s: %w", id, err)
	default:
		c.logger.Err(err).Str("func", "HybridCollection.uploadUpsert").Str("id", id).Msg("upsert upload failed")
		return fmt.Errorf("upload upsert %s: %w", id, err)
	}
}

func (c *HybridCollection) uploadRemove(ctx context.Context, id string) error {
	err := c.remote.Remove(ctx, id)
	c.metrics.Uploaded(c.name, metrics.KindRemove, outcome(err))

	switch {
	case err == nil, errors.Is(err, models.ErrGone):
		return c.local.ResolveRemove(ctx, id)
	case errors.Is(err, models.ErrForbidden):
		c.logger.Err(err).Str("func", "HybridCollection.uploadRemove").Str("id", id).Msg("remote rejected remove")
		if resolveErr := c.local.ResolveRemove(ctx, id); resolveErr != nil {
			return errors.Join(fmt.Errorf("upload remove %s: %w", id, err), resolveErr)
		}
		return fmt.Errorf("upload remove %s: %w", id, err)
	default:
		c.logger.Err(err).Str("func", "HybridCollection.uploadRemove").Str("id", id).Msg("remove upload failed")
		return fmt.Errorf("upload remove %s: %w", id, err)
	}
}

// dropLocal deletes id locally without leaving a pending remove behind.
func (c *HybridCollection) dropLocal(ctx context.Context, id string) error {
	if err := c.local.Remove(ctx, id); err != nil {
		return err
	}
	return c.local.ResolveRemove(ctx, id)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, models.ErrGone):
		return metrics.OutcomeGone
	case errors.Is(err, models.ErrForbidden):
		return metrics.OutcomeForbidden
	default:
		return metrics.OutcomeError
	}
}
