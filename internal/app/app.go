// Package app wires configuration, the indicator store, the score engine
// service and the HTTP router into one runnable application.
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
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"icedash/internal/config"
	"icedash/internal/exporter"
	"icedash/internal/infrastructure"
	customMiddleware "icedash/internal/middleware"
	"icedash/internal/observability"
	"icedash/internal/services"
	"icedash/internal/sheets"
	"icedash/internal/store"
	handlers "icedash/internal/transport/http"
)

const (
	VERSION = config.AppVersion
	AppName = config.AppName
)

// Application represents the main application container
type Application struct {
	Config  *config.Config
	Router  *chi.Mux
	Server  *http.Server
	Store   *store.Store
	Service *services.IndicatorService
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// NewApplication creates a new application instance with dependency injection
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.String("medium", cfg.Store.Medium))

	app := &Application{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the medium selected by configuration, the store
// over it, and the indicator service.
func (a *Application) initializeServices() error {
	medium, err := mediumFromConfig(a.Config, a.Logger)
	if err != nil {
		return err
	}

	a.Metrics = observability.NewMetrics()
	a.Store = store.New(medium, a.Config.Store.CacheTTL, a.Logger).WithMetrics(a.Metrics)
	a.Service = services.NewIndicatorService(
		a.Store,
		exporter.NewCSVWriter(a.Logger),
		a.Metrics,
		a.Logger,
	)

	return nil
}

// mediumFromConfig maps the configured medium name onto a store.Medium.
func mediumFromConfig(cfg *config.Config, logger *slog.Logger) (store.Medium, error) {
	switch cfg.Store.Medium {
	case config.MediumCSV:
		return store.NewCSVMedium(cfg.Store.FilePath), nil
	case config.MediumXLSX:
		return store.NewXLSXMedium(cfg.Store.FilePath, cfg.Store.Worksheet), nil
	case config.MediumSheets:
		return sheets.NewMedium(cfg.Sheets, cfg.Store.Worksheet, logger), nil
	default:
		return nil, fmt.Errorf("unknown store medium: %q", cfg.Store.Medium)
	}
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.Compress(5))

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	a.setupAPIRoutes(r)

	// Prometheus endpoint stays outside /api.
	r.Handle("/metrics", promhttp.Handler())

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	observationHandler := handlers.NewObservationHandler(a.Service, a.Logger)
	scoreHandler := handlers.NewScoreHandler(a.Service, a.Logger)
	healthHandler := handlers.NewHealthHandler(a.Service, VERSION, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/observations", observationHandler.Routes())
		r.Mount("/scores", scoreHandler.Routes())
		r.Get("/export/csv", observationHandler.ExportCSV)
		r.Get("/export/scores", scoreHandler.ExportCSV)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)
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

// Start starts the HTTP server and warms the table cache.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting server",
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	// Warm the cache so the first request does not pay the load. A failure
	// here is logged but not fatal: the medium may come up later.
	if _, report, err := a.Store.Load(ctx); err != nil {
		a.Logger.WarnContext(ctx, "initial table load failed",
			slog.String("error", err.Error()))
	} else {
		a.Logger.InfoContext(ctx, "initial table loaded",
			slog.Int("loaded_rows", report.LoadedRows),
			slog.Int("dropped_rows", report.DroppedRows))
	}

	a.Logger.InfoContext(ctx, "application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	infrastructure.CloseLogFile()

	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}
