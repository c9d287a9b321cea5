// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds shared by every layer. Match them with errors.Is.
var (
	// ErrInvalidArgument is returned for malformed input such as a base
	// without an id. It is never retried.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrStorageFault wraps local storage I/O failures.
	ErrStorageFault = errors.New("storage fault")
	// ErrRemoteFault wraps transport and server failures of the remote.
	ErrRemoteFault = errors.New("remote fault")
	// ErrTimeout is returned when a remote read exceeds its timeout.
	ErrTimeout = errors.New("remote timeout")
	// ErrGone means the remote document was permanently deleted (410).
	ErrGone = errors.New("remote document gone")
	// ErrForbidden means the remote rejected the write (403).
	ErrForbidden = errors.New("remote write forbidden")
	// ErrNotFound is returned by lookups that found nothing.
	ErrNotFound = errors.New("not found")
)

// RemoteError is a remote fault carrying the HTTP status that caused it.
type RemoteError struct {
	Status int
	Err    error
}

// NewRemoteError builds a RemoteError for status wrapping err.
func NewRemoteError(status int, err error) *RemoteError {
	return &RemoteError{Status: status, Err: err}
}

func (e *RemoteError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("remote fault: status %d", e.Status)
	}
	return fmt.Sprintf("remote fault: status %d: %v", e.Status, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is matches ErrRemoteFault for every status, ErrGone for 410 and
// ErrForbidden for 403.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrRemoteFault:
		return true
	case ErrGone:
		return e.Status == http.StatusGone
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	}
	return false
}
