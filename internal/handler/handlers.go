package handler

import (
	"github.com/MKhiriev/go-doc-keeper/internal/config"
	"github.com/MKhiriev/go-doc-keeper/internal/handler/http"
	"github.com/MKhiriev/go-doc-keeper/internal/logger"
	"github.com/MKhiriev/go-doc-keeper/internal/metrics"
	"github.com/MKhiriev/go-doc-keeper/internal/service"
)

type Handlers struct {
	HTTP *http.Handler
}

func NewHandlers(services *service.Services, m *metrics.Metrics, cfg config.ServerConfig, logger *logger.Logger) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	if cfg.HTTPAddress == "" {
		return nil, errNoHandlersAreCreated
	}

	return &Handlers{HTTP: http.NewHandler(services, m, logger)}, nil
}
