package config

import (
	"fmt"
	"time"

	"github.com/MKhiriev/go-doc-keeper/models"
)

// ClientAdapter holds network settings used by the remote gateway.
type ClientAdapter struct {
	// HTTPAddress is the document server endpoint.
	HTTPAddress string
	// RequestTimeout is the default timeout for outbound requests.
	RequestTimeout time.Duration
	// ClientToken authorises writes.
	ClientToken string
	// UseQuickfind enables the diff protocol for eligible reads.
	UseQuickfind bool
	// UsePostFind sends long queries in a POST body.
	UsePostFind bool
}

// ClientStorage selects and locates the local store backend.
type ClientStorage struct {
	// Backend is one of BackendMemory, BackendSQLite or BackendBolt.
	Backend string
	// DSN is the SQLite database file.
	DSN string
	// BoltPath is the bbolt database file.
	BoltPath string
}

// ClientWorkers contains client background worker settings.
type ClientWorkers struct {
	// UploadInterval defines how often pending writes are uploaded.
	UploadInterval time.Duration
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	// Adapter contains remote gateway settings.
	Adapter ClientAdapter
	// Storage contains local store settings.
	Storage ClientStorage
	// Hybrid contains the default reconciliation options.
	Hybrid models.HybridOptions
	// Workers contains background job settings.
	Workers ClientWorkers
	// Args holds the command and its operands.
	Args []string
}

// GetClientConfig builds and validates a client-specific config view from the
// merged structured configuration.
func GetClientConfig(args []string) (*ClientConfig, error) {
	cfg, err := GetStructuredConfig(args)
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	return newClientConfig(cfg)
}

func newClientConfig(cfg *StructuredConfig) (*ClientConfig, error) {
	backend := cfg.Storage.Backend
	if backend == "" {
		backend = BackendSQLite
	}

	clientCfg := &ClientConfig{
		Adapter: ClientAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			RequestTimeout: cfg.Adapter.RequestTimeout,
			ClientToken:    cfg.Adapter.ClientToken,
			UseQuickfind:   cfg.Adapter.UseQuickfind,
			UsePostFind:    cfg.Adapter.UsePostFind,
		},
		Storage: ClientStorage{
			Backend:  backend,
			DSN:      cfg.Storage.DSN,
			BoltPath: cfg.Storage.BoltPath,
		},
		Hybrid:  cfg.Hybrid.Options(),
		Workers: ClientWorkers{UploadInterval: cfg.Workers.UploadInterval},
		Args:    cfg.Args,
	}

	return clientCfg, clientCfg.validate()
}
