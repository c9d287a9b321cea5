package http

import (
	"github.com/MKhiriev/go-doc-keeper/internal/logger"
	"github.com/MKhiriev/go-doc-keeper/internal/metrics"
	"github.com/MKhiriev/go-doc-keeper/internal/service"
)

type Handler struct {
	services *service.Services
	metrics  *metrics.Metrics

	logger *logger.Logger
}

func NewHandler(services *service.Services, m *metrics.Metrics, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services: services,
		metrics:  m,
		logger:   logger,
	}
}
