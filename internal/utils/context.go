// Package utils provides general-purpose helper utilities
// used across different parts of the application.
// Includes tools for working with context, type-safe keys, HTTP response
// writing, HTTP client initialization, client token generation and
// validation, and id generation.
package utils

import (
	"context"
)

// contextKey is a private type for context keys.
// Using a dedicated type instead of a plain string prevents key collisions
// with other packages that may use string-based keys in the context.
type contextKey string

// String returns the string representation of the context key.
// Implements the fmt.Stringer interface.
func (c contextKey) String() string {
	return string(c)
}

// ClientIDCtxKey is the key used to store the authorised client identifier
// in the context of a write request.
//
// Example of writing a value to the context:
//
//	ctx := context.WithValue(ctx, utils.ClientIDCtxKey, "client-a")
var ClientIDCtxKey = contextKey("clientID")

// GetClientIDFromContext retrieves the client identifier from the context.
//
// ok is false when the value is missing, empty or has an unexpected type.
func GetClientIDFromContext(ctx context.Context) (string, bool) {
	clientID, ok := ctx.Value(ClientIDCtxKey).(string)
	return clientID, ok && clientID != ""
}
