// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Token wraps a client JWT with convenience accessors.
//
// A client token authorises writes against the document server. Its "sub"
// claim names the client that performs the write; reads never need one.
type Token struct {
	// Token is the underlying JWT used for signing and claim inspection.
	*jwt.Token `json:"-"`

	// RegisteredClaims provides access to the standard JWT claim set.
	jwt.RegisteredClaims

	// SignedString is the compact JWS form sent as the client parameter.
	SignedString string `json:"-"`

	// ClientID is the parsed "sub" claim.
	ClientID string `json:"-"`
}

// GetClientID extracts the client identifier from the "sub" claim.
func (t *Token) GetClientID() (string, error) {
	clientID, err := t.GetSubject()
	if err != nil {
		return "", fmt.Errorf("error extracting ClientID from token: %w", err)
	}
	if clientID == "" {
		return "", fmt.Errorf("error extracting ClientID from token: empty subject")
	}
	return clientID, nil
}

// String returns the compact JWS serialization of the token.
func (t *Token) String() string {
	return t.SignedString
}
