package client

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/go-doc-keeper/models"
)

var (
	// ErrUsage is returned when a command is missing operands or gets
	// malformed ones.
	ErrUsage = fmt.Errorf("%w: usage", models.ErrInvalidArgument)

	// ErrUnknownCommand is returned for a command name the client does not
	// know.
	ErrUnknownCommand = errors.New("unknown command")
)
