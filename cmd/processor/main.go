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

	"cruisepulse/internal/config"
	"cruisepulse/internal/exporter"
	"cruisepulse/internal/infrastructure"
	"cruisepulse/internal/operations"
	"cruisepulse/internal/rates"
	"cruisepulse/internal/services"
	"cruisepulse/internal/validation"
)

// options holds the parsed command line
type options struct {
	input      string
	configFile string
	resultsDir string
	ratesFile  string
	statsFile  string
	impute     bool
	publish    bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("processor", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.input, "in", "", "input export (.csv or .xlsx)")
	fs.StringVar(&opts.configFile, "config", "", "optional YAML config file")
	fs.StringVar(&opts.resultsDir, "results", "", "directory for the result CSV (defaults to the configured results dir)")
	fs.StringVar(&opts.ratesFile, "rates", "", "rate file (defaults to the configured rates file)")
	fs.StringVar(&opts.statsFile, "stats", "", "write the run statistics JSON here instead of stdout")
	fs.BoolVar(&opts.impute, "impute", false, "fill missing numeric cells with per-currency medians")
	fs.BoolVar(&opts.publish, "publish", false, "also publish the result to Google Sheets")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.input == "" && fs.NArg() > 0 {
		opts.input = fs.Arg(0)
	}
	if opts.input == "" {
		fs.Usage()
		return nil, errors.New("an input file is required (-in)")
	}
	return opts, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("Processing failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	// stdout carries the statistics, so console logs go to stderr
	logger, err := newLogger(cfg.Logging, stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(logger)
	defer infrastructure.CloseLogFile()

	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		return fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateInputFile(opts.input); err != nil {
		return err
	}
	if err := validator.ValidateOutputDirectory(paths.ResultsDir); err != nil {
		return err
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

	svc, err := newProcessingService(ctx, cfg, paths, providers, opts.publish, logger)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Processing file",
		slog.String("input", opts.input),
		slog.String("rates_file", paths.RatesFile),
		slog.Bool("impute", cfg.Pipeline.ImputeMissing))

	result, err := svc.ProcessFile(ctx, opts.input)
	if err != nil {
		return err
	}

	resultPath, err := svc.ResultPath(result.ResultFile)
	if err != nil {
		return err
	}
	return writeStats(result, resultPath, opts.statsFile, stdout)
}

// loadConfig applies command line overrides on top of the loaded config
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

	if opts.resultsDir != "" {
		cfg.Paths.ResultsDir = opts.resultsDir
	}
	if opts.ratesFile != "" {
		cfg.Paths.RatesFile = opts.ratesFile
	}
	if opts.impute {
		cfg.Pipeline.ImputeMissing = true
	}
	if opts.publish {
		cfg.Sheets.Enabled = true
	}
	// nothing scrapes a one-shot process
	cfg.Telemetry.MetricsEnabled = false
	return cfg, nil
}

func newLogger(cfg config.LoggingConfig, stderr io.Writer) (*slog.Logger, error) {
	if cfg.Output == "file" || cfg.Output == "both" {
		return infrastructure.InitializeLogger(cfg)
	}
	lvl := cfg.Level
	if lvl == "warning" {
		lvl = "warn"
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(lvl)); err != nil {
		level = slog.LevelInfo
	}
	return infrastructure.NewLoggerWithWriter(stderr, &slog.HandlerOptions{Level: level}), nil
}

func newProcessingService(ctx context.Context, cfg *config.Config, paths *config.Paths, providers *infrastructure.OTelProviders, publish bool, logger *slog.Logger) (*services.ProcessingService, error) {
	tracer, err := operations.NewOperationTracer(providers)
	if err != nil {
		return nil, err
	}

	pipeline := operations.NewPipeline(
		rates.NewFileProvider(paths.RatesFile, logger),
		operations.OptionsFromConfig(cfg.Pipeline),
		logger,
		operations.WithTracer(tracer),
	)

	var publisher exporter.Publisher
	if publish {
		sp, err := exporter.NewSheetsPublisher(ctx, cfg.Sheets, paths.CredentialsFile, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sheets publisher: %w", err)
		}
		publisher = sp
	}

	return services.NewProcessingService(pipeline, exporter.NewCSVWriter(paths, logger), publisher, paths, logger), nil
}

// statsOutput is the JSON document printed after a run
type statsOutput struct {
	*services.ProcessResult
	ResultPath string `json:"result_path"`
	DurationMS int64  `json:"duration_ms"`
}

func writeStats(result *services.ProcessResult, resultPath, statsFile string, stdout io.Writer) error {
	out := statsOutput{
		ProcessResult: result,
		ResultPath:    resultPath,
		DurationMS:    result.Duration.Milliseconds(),
	}

	w := stdout
	if statsFile != "" {
		f, err := os.Create(statsFile)
		if err != nil {
			return fmt.Errorf("failed to create stats file: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}
