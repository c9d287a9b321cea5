package adapter

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/go-doc-keeper/models"
)

var (
	ErrClientRequired   = fmt.Errorf("%w: client token required for writes", models.ErrInvalidArgument)
	ErrInvalidAddress   = errors.New("invalid adapter http address")
	ErrEncodingRequest  = errors.New("error encoding request")
	ErrDecodingResponse = errors.New("error decoding response")
)
