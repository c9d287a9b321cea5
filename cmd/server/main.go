package main

import (
	"context"
	"fmt"
	"os"

	"github.com/MKhiriev/go-doc-keeper/internal/config"
	"github.com/MKhiriev/go-doc-keeper/internal/handler"
	"github.com/MKhiriev/go-doc-keeper/internal/logger"
	"github.com/MKhiriev/go-doc-keeper/internal/metrics"
	"github.com/MKhiriev/go-doc-keeper/internal/server"
	"github.com/MKhiriev/go-doc-keeper/internal/service"
	"github.com/MKhiriev/go-doc-keeper/internal/store"
	"github.com/MKhiriev/go-doc-keeper/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	buildInfo := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)
	fmt.Fprint(os.Stderr, buildInfo)

	log := logger.NewLogger("go-doc-server")
	cfg, err := config.GetServerConfig(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}
	if cfg.App.Version == "" {
		cfg.App.Version = buildInfo.BuildVersion()
	}

	ctx := context.Background()
	storages, err := store.NewStorages(ctx, cfg.DSN, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}
	defer storages.Close()

	services, err := service.NewServices(storages, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating services")
	}

	if len(cfg.Args) == 2 && cfg.Args[0] == "token" {
		token, err := services.TokenService.CreateToken(ctx, cfg.Args[1])
		if err != nil {
			log.Fatal().Err(err).Msg("error creating client token")
		}
		fmt.Println(token.SignedString)
		return
	}

	handlers, err := handler.NewHandlers(services, metrics.New(), *cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	srv, err := server.NewServer(handlers, *cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}
