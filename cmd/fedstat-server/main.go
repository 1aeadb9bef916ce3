package main

import (
	"flag"
	"log/slog"
	"os"

	"fedstatcli/internal/app"
	"fedstatcli/internal/config"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file (defaults to config.yaml or $FEDSTAT_CONFIG)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configFile != "" {
		cfg, err = config.LoadFrom(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
