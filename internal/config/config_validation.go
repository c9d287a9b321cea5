// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "fmt"

// validate checks the merged [StructuredConfig] for values that are invalid
// regardless of which binary consumes it.
func (cfg *StructuredConfig) validate() error {
	switch cfg.Storage.Backend {
	case "", BackendMemory, BackendSQLite, BackendBolt:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidStorageConfigs, cfg.Storage.Backend)
	}

	if cfg.Server.RequestTimeout < 0 || cfg.Adapter.RequestTimeout < 0 {
		return fmt.Errorf("%w: negative request timeout", ErrInvalidServerConfigs)
	}

	if cfg.Hybrid.ReadTimeout < 0 {
		return ErrInvalidHybridConfigs
	}

	if cfg.Workers.UploadInterval < 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}

func (cfg *ClientConfig) validate() error {
	switch cfg.Storage.Backend {
	case BackendSQLite:
		if cfg.Storage.DSN == "" {
			return fmt.Errorf("%w: sqlite backend needs a DSN", ErrInvalidStorageConfigs)
		}
	case BackendBolt:
		if cfg.Storage.BoltPath == "" {
			return fmt.Errorf("%w: bolt backend needs a path", ErrInvalidStorageConfigs)
		}
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout == 0 {
		return ErrInvalidAdapterConfigs
	}

	return nil
}

func (cfg *ServerConfig) validate() error {
	if cfg.HTTPAddress == "" || cfg.RequestTimeout == 0 {
		return ErrInvalidServerConfigs
	}

	if cfg.App.TokenSignKey == "" || cfg.App.TokenIssuer == "" {
		return ErrInvalidAppConfigs
	}

	return nil
}
