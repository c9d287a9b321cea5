// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"time"
)

// ServerApp holds the token settings of the document server.
type ServerApp struct {
	TokenSignKey  string
	TokenIssuer   string
	TokenDuration time.Duration
	Version       string
}

// ServerConfig is the document server view of [StructuredConfig].
type ServerConfig struct {
	App ServerApp
	// HTTPAddress is the listen address.
	HTTPAddress string
	// RequestTimeout bounds every inbound request.
	RequestTimeout time.Duration
	// DSN is the PostgreSQL connection string; empty keeps documents in
	// memory.
	DSN string
	// Args holds the command and its operands; "token <client-id>" mints a
	// client token instead of serving.
	Args []string
}

// GetServerConfig builds and validates the document server configuration.
func GetServerConfig(args []string) (*ServerConfig, error) {
	cfg, err := GetStructuredConfig(args)
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	return newServerConfig(cfg)
}

func newServerConfig(cfg *StructuredConfig) (*ServerConfig, error) {
	serverCfg := &ServerConfig{
		App: ServerApp{
			TokenSignKey:  cfg.App.TokenSignKey,
			TokenIssuer:   cfg.App.TokenIssuer,
			TokenDuration: cfg.App.TokenDuration,
			Version:       cfg.App.Version,
		},
		HTTPAddress:    cfg.Server.HTTPAddress,
		RequestTimeout: cfg.Server.RequestTimeout,
		DSN:            cfg.Storage.ServerDSN,
		Args:           cfg.Args,
	}

	return serverCfg, serverCfg.validate()
}
