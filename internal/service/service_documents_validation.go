package service

import (
	"context"
	"fmt"
	"regexp"

	"github.com/MKhiriev/go-doc-keeper/models"
)

var collectionName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// DocumentValidationService rejects malformed requests before they reach
// the wrapped DocumentService.
type DocumentValidationService struct {
	inner DocumentService
}

func NewDocumentValidationService() DocumentServiceWrapper {
	return &DocumentValidationService{}
}

func (v *DocumentValidationService) Find(ctx context.Context, col string, sel models.Selector, opts models.FindOptions) ([]models.Document, int, error) {
	if err := validateCollection(col); err != nil {
		return nil, 0, err
	}
	if err := validateOptions(opts); err != nil {
		return nil, 0, err
	}
	return v.inner.Find(ctx, col, sel, opts)
}

func (v *DocumentValidationService) Quickfind(ctx context.Context, col string, sel models.Selector, opts models.FindOptions, digests map[string]string) (models.QuickfindResponse, int, error) {
	if err := validateCollection(col); err != nil {
		return nil, 0, err
	}
	if err := validateOptions(opts); err != nil {
		return nil, 0, err
	}
	return v.inner.Quickfind(ctx, col, sel, opts, digests)
}

func (v *DocumentValidationService) Insert(ctx context.Context, col string, doc models.Document, clientID string) (models.Document, error) {
	if err := validateCollection(col); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrValidationNoDoc
	}
	return v.inner.Insert(ctx, col, doc, clientID)
}

func (v *DocumentValidationService) Patch(ctx context.Context, col string, doc, base models.Document, clientID string) (models.Document, error) {
	if err := validateCollection(col); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrValidationNoDoc
	}
	if doc.ID() == "" {
		return nil, ErrValidationNoID
	}
	if base != nil && base.ID() != doc.ID() {
		return nil, fmt.Errorf("%w: %q and %q", ErrValidationBaseID, base.ID(), doc.ID())
	}
	return v.inner.Patch(ctx, col, doc, base, clientID)
}

func (v *DocumentValidationService) Remove(ctx context.Context, col, id, clientID string) error {
	if err := validateCollection(col); err != nil {
		return err
	}
	if id == "" {
		return ErrValidationNoID
	}
	return v.inner.Remove(ctx, col, id, clientID)
}

func (v *DocumentValidationService) Wrap(inner DocumentService) DocumentService {
	v.inner = inner
	return v
}

func validateCollection(col string) error {
	if !collectionName.MatchString(col) {
		return fmt.Errorf("%w: %q", ErrValidationCollection, col)
	}
	return nil
}

func validateOptions(opts models.FindOptions) error {
	if opts.Skip < 0 || opts.Limit < 0 {
		return fmt.Errorf("%w: negative skip or limit", models.ErrInvalidArgument)
	}
	return nil
}
