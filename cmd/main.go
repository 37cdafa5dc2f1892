package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/gpxup/internal/services"
	"github.com/desertthunder/gpxup/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	var osmService services.TraceService

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	if config.Credentials.OSM.ClientID != "" && config.Credentials.OSM.ClientSecret != "" {
		if svc, err := services.NewOSMService(config.Credentials.OSM.Map()); err == nil {
			if token, err := loadToken(); err == nil {
				svc.SetToken(token)
			}
			osmService = svc
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Service: osmService,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "gpxup",
		Usage:    "Upload GPX traces to OpenStreetMap, skipping duplicates",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
