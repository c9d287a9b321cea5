// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"context"
	"testing"
)

func TestContextKeyString(t *testing.T) {
	key := contextKey("testKey")
	if key.String() != "testKey" {
		t.Errorf("expected 'testKey', got '%s'", key.String())
	}
}

func TestClientIDCtxKey(t *testing.T) {
	if ClientIDCtxKey.String() != "clientID" {
		t.Errorf("expected 'clientID', got '%s'", ClientIDCtxKey.String())
	}
}

func TestGetClientIDFromContext(t *testing.T) {
	tests := []struct {
		name   string
		ctx    context.Context
		want   string
		wantOK bool
	}{
		{"success", context.WithValue(context.Background(), ClientIDCtxKey, "client-a"), "client-a", true},
		{"missing", context.Background(), "", false},
		{"wrong type", context.WithValue(context.Background(), ClientIDCtxKey, int64(42)), "", false},
		{"empty", context.WithValue(context.Background(), ClientIDCtxKey, ""), "", false},
		{"different key", context.WithValue(context.Background(), contextKey("otherKey"), "client-a"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := GetClientIDFromContext(tt.ctx)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if got != tt.want {
				t.Errorf("expected clientID=%q, got %q", tt.want, got)
			}
		})
	}
}
