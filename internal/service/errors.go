package service

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/go-doc-keeper/models"
)

var (
	ErrVersionIsNotSpecified = errors.New("app version is not specified")

	ErrCollectionNotFound = fmt.Errorf("hybrid collection %w", models.ErrNotFound)

	ErrTokenCreationFailed     = errors.New("token creation failed")
	ErrTokenIsExpiredOrInvalid = fmt.Errorf("%w: token is expired or invalid", models.ErrForbidden)

	ErrClientRequired      = fmt.Errorf("%w: client token required for writes", models.ErrForbidden)
	ErrDocumentGone        = fmt.Errorf("%w: document was deleted", models.ErrGone)
	ErrValidationNoDoc     = fmt.Errorf("%w: no document provided", models.ErrInvalidArgument)
	ErrValidationNoID      = fmt.Errorf("%w: no document id provided", models.ErrInvalidArgument)
	ErrValidationBaseID    = fmt.Errorf("%w: base and document ids differ", models.ErrInvalidArgument)
	ErrValidationCollection = fmt.Errorf("%w: invalid collection name", models.ErrInvalidArgument)
)
