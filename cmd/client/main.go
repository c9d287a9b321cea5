package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-doc-keeper/internal/client"
	"github.com/MKhiriev/go-doc-keeper/internal/config"
	"github.com/MKhiriev/go-doc-keeper/internal/logger"
	"github.com/MKhiriev/go-doc-keeper/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	log := logger.NewFileLogger("go-doc-client", "")
	cfg, err := config.GetClientConfig(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	if len(cfg.Args) > 0 && cfg.Args[0] == "version" {
		fmt.Print(models.NewAppBuildInfo(buildVersion, buildDate, buildCommit))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	app, err := client.NewApp(ctx, cfg, os.Stdout, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init client app error")
	}

	err = app.Run(ctx, cfg.Args)
	if closeErr := app.Close(); closeErr != nil {
		log.Err(closeErr).Msg("closing local store")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("client run error")
	}
}
