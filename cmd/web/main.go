package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"cruisepulse/internal/app"
	"cruisepulse/internal/config"
	"cruisepulse/internal/infrastructure"
)

func main() {
	configFile := flag.String("config", "", "optional YAML config file")
	port := flag.Int("port", 0, "listen port (overrides the configured port)")
	flag.Parse()

	cfg, err := loadConfig(*configFile, *port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger, using default: %v\n", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	application, err := app.NewApplication(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func loadConfig(configFile string, port int) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if port > 0 {
		cfg.Server.Port = port
	}
	return cfg, nil
}
