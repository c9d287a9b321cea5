package service

import (
	"github.com/MKhiriev/go-doc-keeper/internal/config"
	"github.com/MKhiriev/go-doc-keeper/internal/logger"
	"github.com/MKhiriev/go-doc-keeper/internal/store"
)

// Services groups the document server services.
type Services struct {
	DocumentService DocumentService
	TokenService    TokenService
	AppInfoService  AppInfoService
}

func NewServices(storages *store.Storages, cfg *config.ServerConfig, logger *logger.Logger) (*Services, error) {
	appInfo, err := NewAppInfoService(cfg.App, logger)
	if err != nil {
		return nil, err
	}

	documents := NewDocumentValidationService().Wrap(NewDocumentService(storages.Documents, logger))

	return &Services{
		DocumentService: documents,
		TokenService:    NewTokenService(cfg.App, logger),
		AppInfoService:  appInfo,
	}, nil
}
