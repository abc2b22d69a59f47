package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
	"github.com/SirGarbage/Bitirme-Projesi/internal/exporter"
	"github.com/SirGarbage/Bitirme-Projesi/internal/forecast"
	"github.com/SirGarbage/Bitirme-Projesi/internal/infrastructure"
	customMiddleware "github.com/SirGarbage/Bitirme-Projesi/internal/middleware"
	"github.com/SirGarbage/Bitirme-Projesi/internal/services"
	handlers "github.com/SirGarbage/Bitirme-Projesi/internal/transport/http"
	ws "github.com/SirGarbage/Bitirme-Projesi/internal/websocket"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts"
)

// Application represents the dashboard server and its services
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.ForecastMetrics
	ErrorHandler  *apperrors.ErrorHandler
	Services      *ServiceContainer
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Datasets  *services.DatasetService
	Dashboard *services.DashboardService
	Health    *services.HealthService
	WebSocket *ws.Hub
}

// NewApplication loads the configuration, initializes logging and
// telemetry and builds the application
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, infrastructure.DefaultOTelConfig(), logger)
}

// New builds the application from an already loaded configuration
func New(cfg *config.Config, otelCfg *infrastructure.OTelConfig, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version))

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateForecastMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apperrors.NewErrorHandler(logger, cfg.Logging.Level == "debug"),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices wires the dataset, dashboard, websocket and health services
func (a *Application) initializeServices() error {
	engine, err := forecast.NewEngine(a.Config.Forecast, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create forecast engine: %w", err)
	}

	store := exporter.NewWorkbookStore(a.Config.Dataset, a.Config.Sectors, a.Logger)

	// The hub answers dashboard requests through the dashboard service,
	// which reads from the dataset service, which broadcasts on the hub.
	// The responder is bound after construction to break the cycle.
	responder := &lazyResponder{}
	hub := ws.NewHub(a.Config.WebSocket, responder, a.Metrics, a.Logger)

	preferUSD := a.Config.Dashboard.PreferUSD
	datasets := services.NewDatasetService(store, func() string {
		return a.Paths.DashboardWorkbook(preferUSD)
	}, hub, a.Metrics, a.Logger)

	dashboard := services.NewDashboardService(datasets, engine, a.Config.Dashboard, a.Metrics, a.Logger)
	responder.bind(dashboard)

	a.Services = &ServiceContainer{
		Datasets:  datasets,
		Dashboard: dashboard,
		Health:    services.NewHealthService(a.Paths, datasets, hub, a.Logger),
		WebSocket: hub,
	}
	return nil
}

// setupRouter builds the chi router and its middleware chain
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// RequestID → RealIP → OTel → Logger → Recoverer
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.ErrorHandler))

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	// The websocket route must not sit behind Timeout or SecurityHeaders
	r.Method(http.MethodGet, "/ws", handlers.NewWebSocketHandler(
		a.Services.WebSocket, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.ErrorHandler, a.Logger))

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.SecurityHeaders)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.ErrorHandler,
				a.Logger,
			).Handler)
		}
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.ErrorHandler))

		a.setupHTMLRoutes(r)
		a.setupAPIRoutes(r)
	})

	a.Router = r
}

// setupAPIRoutes registers the JSON and chart endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	dashboard := handlers.NewDashboardHandler(a.Services.Dashboard, a.Services.Datasets, a.ErrorHandler, a.Logger)
	health := handlers.NewHealthHandler(a.Services.Health, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Mount("/health", health.Routes())
		r.Get("/version", health.Version)
		r.Get("/regions", dashboard.GetRegions)
		r.Mount("/dashboard", dashboard.Routes())
	})
}

// setupHTMLRoutes registers the dashboard page
func (a *Application) setupHTMLRoutes(r chi.Router) {
	page := handlers.NewPageHandler(a.Services.Datasets, a.Config.Dashboard, a.Logger)
	r.Get("/", page.ServeIndex)
}

// getCORSConfig allows the configured origins plus the server's own address
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	origins := []string{
		fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
		fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
	}
	origins = append(origins, a.Config.Security.AllowedOrigins...)

	a.Logger.Info("CORS configured", slog.Any("allowed_origins", origins))

	return customMiddleware.CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		ExposedHeaders: []string{customMiddleware.RequestIDHeader},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start loads the dataset, starts the background services and the server.
// A missing workbook is not fatal: the scheduled reload picks it up once
// the pipeline has produced it.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	if err := a.Services.Datasets.Load(ctx); err != nil {
		if apperrors.IsType(err, apperrors.ErrTypeSourceUnavailable) {
			a.Logger.WarnContext(ctx, "Dataset not available yet, serving without data",
				slog.String("error", err.Error()))
		} else {
			return fmt.Errorf("failed to load dataset: %w", err)
		}
	}

	a.Services.WebSocket.Start()

	if err := a.Services.Datasets.StartSchedule(a.Config.Dashboard.ReloadSchedule); err != nil {
		return err
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("url", "http://"+a.Server.Addr))
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

	a.Services.Datasets.Stop()
	a.Services.WebSocket.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted or the server fails
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

// performStartupHealthCheck verifies the output directories are writable
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var warnings []string

	directories := map[string]string{
		"Data":    a.Paths.DataDir,
		"Reports": a.Paths.ReportsDir,
		"Logs":    a.Paths.LogsDir,
	}
	for name, dir := range directories {
		testFile := filepath.Join(dir, ".write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s directory not writable: %s", name, dir))
			continue
		}
		os.Remove(testFile)
	}

	if !config.FileExists(a.Paths.TrainingWorkbook) {
		a.Logger.InfoContext(ctx, "Training workbook not found, run the prepare step",
			slog.String("path", a.Paths.TrainingWorkbook))
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}
