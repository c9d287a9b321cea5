// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"

	"github.com/MKhiriev/go-doc-keeper/models"
)

// Local storage backend names accepted by Storage.Backend.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// StructuredConfig is the top-level configuration container shared by the
// document server and the client. It is populated by merging values from
// environment variables, command-line flags and an optional JSON file.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env      : direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds token signing parameters and the application version.
	App App `envPrefix:"APP_"`

	// Storage holds the local store backend and the server database settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Server holds the document server listen address and timeouts.
	Server Server `envPrefix:"SERVER_"`

	// Adapter holds the remote gateway settings used by the client.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Hybrid holds the default reconciliation options of hybrid collections.
	Hybrid Hybrid `envPrefix:"HYBRID_"`

	// Workers holds background worker settings.
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`

	// Args holds the positional command-line arguments left after flag
	// parsing (the client command and its operands).
	Args []string
}

// App holds application-level values controlling client tokens and
// versioning.
type App struct {
	// TokenSignKey is the secret used to sign and verify client tokens.
	// Env: APP_TOKEN_SIGN_KEY
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`

	// TokenIssuer is the "iss" claim of every client token.
	// Env: APP_TOKEN_ISSUER
	TokenIssuer string `env:"TOKEN_ISSUER"`

	// TokenDuration is the validity of minted client tokens.
	// Env: APP_TOKEN_DURATION
	TokenDuration time.Duration `env:"TOKEN_DURATION"`

	// Version is exposed via the /api/version/ endpoint.
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// Storage groups the persistence settings of both binaries.
type Storage struct {
	// Backend selects the local store: memory, sqlite or bolt.
	// Env: STORAGE_BACKEND
	Backend string `env:"BACKEND"`

	// DSN is the SQLite database file of the local store.
	// Env: STORAGE_DSN
	DSN string `env:"DSN"`

	// BoltPath is the bbolt database file of the local store.
	// Env: STORAGE_BOLT_PATH
	BoltPath string `env:"BOLT_PATH"`

	// ServerDSN is the PostgreSQL connection string of the document server.
	// An empty value keeps server documents in memory.
	// Env: STORAGE_DATABASE_URI
	ServerDSN string `env:"DATABASE_URI"`
}

// Server holds network and timeout settings of the document server.
type Server struct {
	// HTTPAddress is the listen address in "host:port" format.
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds every inbound request.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Adapter holds the settings of the remote gateway.
type Adapter struct {
	// HTTPAddress is the base URL or host:port of the document server.
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds every outbound request.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// ClientToken authorises writes; reads work without it.
	// Env: ADAPTER_CLIENT_TOKEN
	ClientToken string `env:"CLIENT_TOKEN"`

	// UseQuickfind enables the quickfind diff protocol for eligible reads.
	// Env: ADAPTER_USE_QUICKFIND
	UseQuickfind bool `env:"USE_QUICKFIND"`

	// UsePostFind sends long queries as POST {collection}/find.
	// Env: ADAPTER_USE_POST_FIND
	UsePostFind bool `env:"USE_POST_FIND"`
}

// Hybrid holds default reconciliation options. Nil fields keep the defaults
// of models.DefaultHybridOptions.
type Hybrid struct {
	// Env: HYBRID_INTERIM
	Interim *bool `env:"INTERIM"`
	// Env: HYBRID_CACHE_FIND
	CacheFind *bool `env:"CACHE_FIND"`
	// Env: HYBRID_CACHE_FIND_ONE
	CacheFindOne *bool `env:"CACHE_FIND_ONE"`
	// Env: HYBRID_USE_LOCAL_ON_REMOTE_ERROR
	UseLocalOnRemoteError *bool `env:"USE_LOCAL_ON_REMOTE_ERROR"`
	// Env: HYBRID_SHORTCUT
	Shortcut *bool `env:"SHORTCUT"`
	// ReadTimeout bounds remote reads; zero waits for the remote.
	// Env: HYBRID_READ_TIMEOUT
	ReadTimeout time.Duration `env:"READ_TIMEOUT"`
}

// Options returns the hybrid options these settings describe.
func (h Hybrid) Options() models.HybridOptions {
	opts := models.DefaultHybridOptions()
	if h.Interim != nil {
		opts.Interim = *h.Interim
	}
	if h.CacheFind != nil {
		opts.CacheFind = *h.CacheFind
	}
	if h.CacheFindOne != nil {
		opts.CacheFindOne = *h.CacheFindOne
	}
	if h.UseLocalOnRemoteError != nil {
		opts.UseLocalOnRemoteError = *h.UseLocalOnRemoteError
	}
	if h.Shortcut != nil {
		opts.Shortcut = *h.Shortcut
	}
	opts.Timeout = h.ReadTimeout
	return opts
}

// Workers holds background worker settings.
type Workers struct {
	// UploadInterval is the period of the upload worker; zero disables it.
	// Env: WORKERS_UPLOAD_INTERVAL
	UploadInterval time.Duration `env:"UPLOAD_INTERVAL"`
}

// GetStructuredConfig loads, merges, and validates the configuration from
// all sources in the following priority order (last source wins for
// non-zero fields):
//  1. Environment variables
//  2. Command-line flags parsed from args
//  3. JSON file (path resolved from sources 1 and 2)
func GetStructuredConfig(args []string) (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags(args).
		withJSON().
		build()
}
