// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// StoredDocument is the server-side copy of a document. Rev is assigned by
// the server on every write and mirrored into Doc[RevField].
type StoredDocument struct {
	Collection string    `json:"collection"`
	ID         string    `json:"id"`
	Rev        int64     `json:"rev"`
	Doc        Document  `json:"doc"`
	Deleted    bool      `json:"deleted"`
	ClientID   string    `json:"client_id"`
	UpdatedAt  time.Time `json:"updated_at"`
}
