package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cruisepulse/internal/config"
	"cruisepulse/internal/infrastructure"
	"cruisepulse/internal/operations"
	"cruisepulse/internal/rates"
)

type options struct {
	configFile string
	ratesFile  string
	source     string
	from       string
	statusOnly bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("rates-updater", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.configFile, "config", "", "optional YAML config file")
	fs.StringVar(&opts.ratesFile, "rates", "", "rate file (defaults to the configured rates file)")
	fs.StringVar(&opts.source, "source", "", "daily rates endpoint (defaults to the configured source)")
	fs.StringVar(&opts.from, "from", "", "start date (YYYY-MM-DD) for a full download")
	fs.BoolVar(&opts.statusOnly, "status", false, "only report the freshness of the rate file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

// report is printed to stdout after every invocation
type report struct {
	Update *rates.UpdateResult `json:"update,omitempty"`
	Status rates.Status        `json:"status"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, time.Now); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("Rate update failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, now func() time.Time) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging, stderr)
	slog.SetDefault(logger)
	defer infrastructure.CloseLogFile()

	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		return fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to ensure directories: %w", err)
	}

	thresholds := rates.Thresholds{FreshWithin: cfg.Rates.FreshWithin, StaleAfter: cfg.Rates.StaleAfter}
	out := report{}

	if opts.statusOnly {
		out.Status = rates.CheckFile(paths.RatesFile, now(), thresholds)
		return writeReport(stdout, out)
	}

	startDate, err := time.Parse("2006-01-02", cfg.Rates.StartDate)
	if err != nil {
		return fmt.Errorf("invalid start date %q: %w", cfg.Rates.StartDate, err)
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Warn("Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}()
	tracer, err := operations.NewOperationTracer(providers)
	if err != nil {
		return err
	}

	client := rates.NewCBRClient(cfg.Rates.SourceURL, cfg.Rates.RequestTimeout, cfg.Rates.RequestInterval, logger)
	updater := rates.NewUpdater(client, paths.RatesFile, startDate, logger,
		rates.WithClock(now),
		rates.WithMetrics(tracer.Metrics()))

	logger.InfoContext(ctx, "Updating exchange rates",
		slog.String("rates_file", paths.RatesFile),
		slog.String("source", cfg.Rates.SourceURL))

	result, updateErr := updater.Update(ctx)
	out.Update = result
	out.Status = rates.CheckFile(paths.RatesFile, now(), thresholds)

	if err := writeReport(stdout, out); err != nil {
		return err
	}
	return updateErr
}

func loadConfig(opts *options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configFile != "" {
		cfg, err = config.LoadFile(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.ratesFile != "" {
		cfg.Paths.RatesFile = opts.ratesFile
	}
	if opts.source != "" {
		cfg.Rates.SourceURL = opts.source
	}
	if opts.from != "" {
		cfg.Rates.StartDate = opts.from
	}
	cfg.Telemetry.MetricsEnabled = false
	return cfg, nil
}

func newLogger(cfg config.LoggingConfig, stderr io.Writer) *slog.Logger {
	if cfg.Output == "file" || cfg.Output == "both" {
		if logger, err := infrastructure.InitializeLogger(cfg); err == nil {
			return logger
		}
	}
	lvl := cfg.Level
	if lvl == "warning" {
		lvl = "warn"
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(lvl)); err != nil {
		level = slog.LevelInfo
	}
	return infrastructure.NewLoggerWithWriter(stderr, &slog.HandlerOptions{Level: level})
}

func writeReport(w io.Writer, out report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}
