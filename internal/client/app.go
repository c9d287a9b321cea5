package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/MKhiriev/go-doc-keeper/internal/adapter"
	"github.com/MKhiriev/go-doc-keeper/internal/config"
	"github.com/MKhiriev/go-doc-keeper/internal/logger"
	"github.com/MKhiriev/go-doc-keeper/internal/metrics"
	"github.com/MKhiriev/go-doc-keeper/internal/service"
	"github.com/MKhiriev/go-doc-keeper/internal/store"
	"github.com/MKhiriev/go-doc-keeper/internal/workers"
	"github.com/MKhiriev/go-doc-keeper/models"
)

type App struct {
	localDB  *store.LocalDB
	remoteDB adapter.RemoteDB
	db       *service.HybridDB
	worker   *workers.UploadWorker

	out    io.Writer
	logger *logger.Logger
}

// NewApp opens the configured local backend and remote gateway. Command
// output is written to out.
func NewApp(ctx context.Context, cfg *config.ClientConfig, out io.Writer, log *logger.Logger) (*App, error) {
	remoteDB, err := adapter.NewHTTPRemoteAdapter(cfg.Adapter, log)
	if err != nil {
		return nil, fmt.Errorf("create remote adapter: %w", err)
	}

	backend, err := store.NewBackend(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("create local backend: %w", err)
	}

	return newApp(store.NewLocalDB(backend, log), remoteDB, cfg.Hybrid, cfg.Workers, metrics.New(), out, log), nil
}

func newApp(localDB *store.LocalDB, remoteDB adapter.RemoteDB, options models.HybridOptions, workerCfg config.ClientWorkers, m *metrics.Metrics, out io.Writer, log *logger.Logger) *App {
	db := service.NewHybridDB(options, m, log)
	return &App{
		localDB:  localDB,
		remoteDB: remoteDB,
		db:       db,
		worker:   workers.NewUploadWorker(db, workerCfg.UploadInterval, log),
		out:      out,
		logger:   log,
	}
}

// Close implements [Client].
func (a *App) Close() error {
	a.worker.Stop()
	return a.localDB.Close()
}

func (a *App) collection(name string) (*service.HybridCollection, error) {
	if col, err := a.db.Collection(name); err == nil {
		return col, nil
	}
	return a.db.Mount(a.localDB, a.remoteDB, name)
}

func (a *App) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
