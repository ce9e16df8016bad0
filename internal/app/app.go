package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"cruisepulse/internal/config"
	apperrors "cruisepulse/internal/errors"
	"cruisepulse/internal/exporter"
	"cruisepulse/internal/files"
	"cruisepulse/internal/infrastructure"
	customMiddleware "cruisepulse/internal/middleware"
	"cruisepulse/internal/operations"
	"cruisepulse/internal/rates"
	"cruisepulse/internal/services"
	handlers "cruisepulse/internal/transport/http"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	ErrorHandler  *apperrors.ErrorHandler
	Processing    *services.ProcessingService
	Health        *services.HealthService
	Results       *files.Manager
	Router        *chi.Mux
	Server        *http.Server

	metrics *infrastructure.PipelineMetrics
}

// NewApplication wires every component from cfg. The logger is expected to be
// the process logger returned by infrastructure.InitializeLogger.
func NewApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.InfoContext(ctx, "Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	if !config.FileExists(paths.RatesFile) {
		logger.WarnContext(ctx, "Rate file not found",
			slog.String("path", paths.RatesFile),
			slog.String("action", "Run rates-updater; amount_rub will be zero until then"))
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		ErrorHandler:  apperrors.NewErrorHandler(logger, false),
	}

	if err := app.initializeServices(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the pipeline and the services around it
func (a *Application) initializeServices(ctx context.Context) error {
	tracer, err := operations.NewOperationTracer(a.OTelProviders)
	if err != nil {
		return err
	}
	a.metrics = tracer.Metrics()

	pipeline := operations.NewPipeline(
		rates.NewReloadingProvider(a.Paths.RatesFile, a.Logger),
		operations.OptionsFromConfig(a.Config.Pipeline),
		a.Logger,
		operations.WithTracer(tracer),
	)

	var publisher exporter.Publisher
	if a.Config.Sheets.Enabled {
		sp, err := exporter.NewSheetsPublisher(ctx, a.Config.Sheets, a.Paths.CredentialsFile, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize sheets publisher: %w", err)
		}
		publisher = sp
		a.Logger.InfoContext(ctx, "Google Sheets publishing enabled",
			slog.String("spreadsheet_id", a.Config.Sheets.SpreadsheetID),
			slog.String("sheet", a.Config.Sheets.SheetName))
	}

	a.Processing = services.NewProcessingService(
		pipeline,
		exporter.NewCSVWriter(a.Paths, a.Logger),
		publisher,
		a.Paths,
		a.Logger,
	)

	a.Results = files.NewManager(a.Paths, files.RetentionFromConfig(a.Config.Retention), a.Logger)

	a.Health = services.NewHealthService(config.AppVersion, a.Paths, rates.Thresholds{
		FreshWithin: a.Config.Rates.FreshWithin,
		StaleAfter:  a.Config.Rates.StaleAfter,
	}, a.Logger)

	return nil
}

// setupRouter configures the HTTP router with all routes.
// Ordering: RequestID, RealIP, OTel, Logger, Recoverer, then the rest.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewHTTPTelemetryWith(a.OTelProviders.Tracer, a.metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Server.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Server.RateLimit.RPS,
				a.Config.Server.RateLimit.Burst,
				a.Logger,
				a.ErrorHandler,
			).Handler)
		}

		a.setupAPIRoutes(r)
		r.Get("/", handlers.ServeIndex(a.Health, a.Config.Server.MaxUploadBytes, config.AppVersion, a.Logger))
	})

	// Prometheus scrapes stay outside the rate limit and request logging
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
	processingHandler := handlers.NewProcessingHandler(a.Processing, a.Logger, a.ErrorHandler, a.Config.Server.OperationTimeout)
	resultsHandler := handlers.NewResultsHandler(a.Results.Discovery(), a.Logger, a.ErrorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/version", healthHandler.Version)
		r.Get("/rates/status", healthHandler.RatesStatus)

		r.With(customMiddleware.MaxBytes(a.Config.Server.MaxUploadBytes)).Post("/upload", processingHandler.Upload)
		r.Get("/download/{filename}", processingHandler.Download)
		r.Get("/results", resultsHandler.List)
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Serve runs the server on ln until ctx is cancelled, then shuts down gracefully.
// The result retention sweep runs alongside it.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Results.Run(gctx, a.Config.Retention.Interval)
	})

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "HTTP server listening", slog.String("address", ln.Addr().String()))
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run listens on the configured port until SIGINT or SIGTERM
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)),
		slog.String("level", a.Config.Logging.Level))

	return a.Serve(ctx, ln)
}
