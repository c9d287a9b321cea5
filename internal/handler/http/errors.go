// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/go-doc-keeper/models"
)

// Sentinel errors produced while decoding requests. Callers can match against
// them with [errors.Is].
var (
	// ErrInvalidQuery is returned when a query parameter of a GET find cannot
	// be decoded.
	ErrInvalidQuery = fmt.Errorf("%w: invalid query parameter", models.ErrInvalidArgument)

	// ErrInvalidBody is returned when a request body is not the expected JSON.
	ErrInvalidBody = fmt.Errorf("%w: invalid request body", models.ErrInvalidArgument)

	// ErrInvalidToken is returned when a client token is present but cannot
	// be read from the Authorization header.
	ErrInvalidToken = fmt.Errorf("%w: invalid client token", models.ErrForbidden)

	errRouteNotFound    = fmt.Errorf("route %w", models.ErrNotFound)
	errMethodNotAllowed = errors.New("method not allowed")
)
