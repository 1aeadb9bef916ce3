package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"fedstatcli/internal/config"
	"fedstatcli/internal/errors"
	"fedstatcli/internal/exporter"
	"fedstatcli/internal/fedstat"
	"fedstatcli/internal/infrastructure"
	customMiddleware "fedstatcli/internal/middleware"
	"fedstatcli/internal/services"
	"fedstatcli/internal/storage"
	handlers "fedstatcli/internal/transport/http"
)

// AppName is reported at startup
const AppName = "fedstat - Rosstat demographic indicators"

// Application represents the main application container
type Application struct {
	Config           *config.Config
	Paths            *config.Paths
	Router           *chi.Mux
	Server           *http.Server
	Logger           *slog.Logger
	OTelProviders    *infrastructure.OTelProviders
	Metrics          *infrastructure.BusinessMetrics
	Store            *storage.Store
	Exporter         *exporter.TableExporter
	ErrorHandler     *errors.ErrorHandler
	IndicatorService *services.IndicatorService
	HealthService    *services.HealthService

	source fedstat.Source
}

// Option customizes an Application before its services are built
type Option func(*Application)

// WithSource replaces the fedstat.ru source
func WithSource(src fedstat.Source) Option {
	return func(a *Application) { a.source = src }
}

// WithLogger replaces the global logger
func WithLogger(l *slog.Logger) Option {
	return func(a *Application) { a.Logger = l }
}

// NewApplication creates a new application instance with dependency injection
func NewApplication(cfg *config.Config, opts ...Option) (*Application, error) {
	if cfg == nil {
		return nil, errors.NewConfigError("configuration is required", nil)
	}
	a := &Application{Config: cfg}
	for _, opt := range opts {
		opt(a)
	}

	if a.Logger == nil {
		logger, err := infrastructure.InitializeLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		a.Logger = logger
	}

	a.Logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", config.AppVersion),
		slog.String("upstream", cfg.FedStat.BaseURL))

	paths, err := config.ResolvePaths(cfg.Export.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(a.Logger)
	a.Paths = paths

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFromTelemetry(cfg.Telemetry), a.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.OTelProviders = otelProviders

	if otelProviders.Meter != nil {
		metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create business metrics: %w", err)
		}
		a.Metrics = metrics
	}

	if err := a.initializeServices(); err != nil {
		a.closeStore()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	a.setupRouter()
	a.createServer()

	return a, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	if a.Config.Export.SQLite != "" {
		path := a.Config.Export.SQLite
		if path != ":memory:" {
			path = a.Paths.GetExportPath(path)
		}
		store, err := storage.Open(context.Background(), path)
		if err != nil {
			return err
		}
		a.Store = store
		a.Logger.Info("SQLite store opened", slog.String("path", path))
	}

	if a.source == nil {
		a.source = fedstat.NewSource(a.Config.FedStat,
			fedstat.WithSourceLogger(a.Logger),
			fedstat.WithSourceMetrics(a.Metrics),
		)
	}

	a.ErrorHandler = errors.NewErrorHandler(a.Logger, false)
	a.Exporter = exporter.NewTableExporter(a.Paths, a.Config.Export.BOMPrefix)

	a.IndicatorService = services.NewIndicatorService(a.source,
		services.WithIndicatorOptions(fedstat.OptionsFromConfig(a.Config.FedStat)...),
		services.WithStore(a.Store),
		services.WithServiceMetrics(a.Metrics),
		services.WithServiceLogger(a.Logger),
	)
	a.HealthService = services.NewHealthService(config.AppVersion, a.Paths, a.Store, a.Logger)
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// RequestID → RealIP → OTel → Logger → Recoverer → SecurityHeaders
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.ErrorHandler))
	r.Use(customMiddleware.SecurityHeaders)

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	r.Get("/healthz", healthHandler.LivenessCheck)
	r.Get("/readyz", healthHandler.ReadinessCheck)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	indicatorHandler := handlers.NewIndicatorHandler(a.IndicatorService, a.Exporter, a.Logger, a.ErrorHandler)
	r.Route("/api", func(r chi.Router) {
		rl := a.Config.Server.RateLimit
		if rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.ErrorHandler, a.Logger).Handler)
		}
		r.Use(customMiddleware.Compress(5))
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/version", healthHandler.Version)
		r.Mount("/indicators", indicatorHandler.Routes())
		r.Get("/combined", indicatorHandler.Combined)
		r.Mount("/tables", indicatorHandler.TableRoutes())
	})

	a.Router = r
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

// Start starts serving in the background. A listener failure cancels ctx
// through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.closeStore()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return infrastructure.CloseLogFile()
}

func (a *Application) closeStore() {
	if a.Store == nil {
		return
	}
	if err := a.Store.Close(); err != nil {
		a.Logger.Error("Failed to close SQLite store", slog.String("error", err.Error()))
	}
	a.Store = nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}
