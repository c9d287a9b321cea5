package service

import (
	"context"

	"github.com/MKhiriev/go-doc-keeper/internal/adapter"
	"github.com/MKhiriev/go-doc-keeper/models"
)

// localRemote lets a local collection stand in for a remote, so pending
// writes of one local store can be uploaded into another.
type localRemote struct {
	col LocalCollection
}

// NewLocalRemote exposes col as an adapter.RemoteCollection. Writes land in
// col as pending writes of its own.
func NewLocalRemote(col LocalCollection) adapter.RemoteCollection {
	return &localRemote{col: col}
}

func (r *localRemote) Find(ctx context.Context, sel models.Selector, opts models.FindOptions, _ []models.Document) ([]models.Document, int, error) {
	docs, count, err := r.col.Find(ctx, sel, opts)
	if err != nil {
		return nil, 0, err
	}
	return docs, count.Total(), nil
}

func (r *localRemote) Upsert(ctx context.Context, doc, base models.Document) (models.Document, error) {
	written, err := r.col.Upsert(ctx, []models.Document{doc}, []models.Document{base})
	if err != nil || len(written) == 0 {
		return nil, err
	}
	return written[0], nil
}

func (r *localRemote) Remove(ctx context.Context, id string) error {
	return r.col.Remove(ctx, id)
}
