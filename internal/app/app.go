package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"salesdash/internal/config"
	"salesdash/internal/dataset"
	apierrors "salesdash/internal/errors"
	"salesdash/internal/infrastructure"
	customMiddleware "salesdash/internal/middleware"
	"salesdash/internal/services"
	"salesdash/internal/sources"
	handlers "salesdash/internal/transport/http"
	ws "salesdash/internal/websocket"
)

// BuildTime is set at link time with -ldflags "-X salesdash/internal/app.BuildTime=...".
var BuildTime = ""

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	Router        *chi.Mux
	Server        *http.Server
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.SalesMetrics
	Store         *dataset.Store
	WebSocketHub  *ws.Hub
	Scheduler     *services.RefreshScheduler
	Services      *ServiceContainer

	serveErr chan error
	addr     string
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Report *services.ReportService
	Health *services.HealthService
}

// NewApplication loads configuration from the environment, installs the
// process logger and wires the application.
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(ctx, cfg, logger)
}

// New wires an application from an already validated configuration. src
// overrides the sources named in cfg when given.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, src ...sources.Source) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	a := &Application{
		Config:   cfg,
		Logger:   logger,
		serveErr: make(chan error, 1),
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Metrics), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.OTelProviders = providers

	a.Metrics, err = infrastructure.NewSalesMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	var source sources.Source
	if len(src) > 0 && src[0] != nil {
		source = src[0]
	} else if source, err = BuildSource(ctx, cfg.Sources, logger); err != nil {
		return nil, err
	}

	a.initializeServices(source)
	a.setupRouter()
	a.createServer()
	return a, nil
}

// BuildSource turns the sources section into a Source. Several configured
// sources are tried in order: JSON URLs, Google Sheet, xlsx, xls.
func BuildSource(ctx context.Context, cfg config.SourcesConfig, logger *slog.Logger) (sources.Source, error) {
	client := &http.Client{Timeout: cfg.Timeout}

	var list []sources.Source
	for _, u := range cfg.JSONURLs {
		list = append(list, sources.NewAppScriptSource(u, client, logger))
	}
	if cfg.SheetID != "" {
		s, err := sources.NewSheetsSource(ctx, sources.SheetsConfig{
			SpreadsheetID:   cfg.SheetID,
			Range:           cfg.SheetRange,
			CredentialsFile: cfg.CredentialsFile,
			APIKey:          cfg.APIKey,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets source: %w", err)
		}
		list = append(list, s)
	}
	if cfg.XLSXPath != "" {
		list = append(list, sources.NewXLSXSource(cfg.XLSXPath, cfg.XLSXSheet, logger))
	}
	if cfg.XLSPath != "" {
		list = append(list, sources.NewXLSSource(cfg.XLSPath, "", logger))
	}

	switch len(list) {
	case 0:
		return nil, apierrors.NewConfigError("no data source configured", nil)
	case 1:
		return list[0], nil
	default:
		return sources.NewChain(logger, list...), nil
	}
}

func (a *Application) initializeServices(source sources.Source) {
	cfg := a.Config

	a.Store = dataset.NewStore(source, dataset.Config{
		TopN:         cfg.Report.TopN,
		DatePriority: cfg.DatePriority(),
		ImageBase:    cfg.Report.ImageBase,
		ImageExts:    cfg.Report.ImageExts,
	}, a.Logger)

	a.WebSocketHub = ws.NewHub(a.Logger, ws.HubOptions{
		PingPeriod: cfg.WebSocket.PingPeriod,
		PongWait:   cfg.WebSocket.PongWait,
		Metrics:    a.Metrics,
	})

	report := services.NewReportService(services.ReportServiceDeps{
		Store:   a.Store,
		Hub:     a.WebSocketHub,
		Metrics: a.Metrics,
		Tracer:  a.OTelProviders.Tracer,
		Logger:  a.Logger,
	})

	a.Services = &ServiceContainer{
		Report: report,
		Health: services.NewHealthService(config.AppVersion, BuildTime, a.Store, a.WebSocketHub, a.Logger),
	}
	a.Scheduler = services.NewRefreshScheduler(report, cfg.Refresh.Schedule, cfg.Refresh.Timeout, a.Logger)
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	// Request IDs and client addresses first; everything below logs with them.
	r.Use(customMiddleware.RequestID)
	r.Use(middleware.RealIP)
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	// The upgrade needs the raw ResponseWriter, so /ws skips the wrapping middleware.
	r.With(apierrors.RecoveryMiddleware(errorHandler)).Handle("/ws", ws.NewHandler(a.WebSocketHub, ws.HandlerConfig{
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
		AllowedOrigins:  a.Config.Security.AllowedOrigins,
		ErrorHandler:    errorHandler,
	}, a.Logger))

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
		r.Use(apierrors.NewErrorMiddleware(errorHandler, a.Logger).Handler)
		r.Use(customMiddleware.SecurityHeaders)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				Logger:         a.Logger,
			}))
		}

		handlers.NewHealthHandler(a.Services.Health, a.Logger).Register(r)

		r.Route("/api", func(r chi.Router) {
			if rl := a.Config.Security.RateLimit; rl.Enabled {
				r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger).Handler)
			}
			r.Use(customMiddleware.Timeout(a.Config.Refresh.Timeout))
			r.Use(middleware.Compress(5))

			r.Post("/logs", handlers.NewClientLogHandler(a.Logger, errorHandler).Handle)
			r.Mount("/", handlers.NewReportHandler(a.Services.Report, a.Logger, errorHandler).Routes())
		})
	})

	a.Router = r
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the hub, the scheduler and the HTTP listener. The first
// refresh runs in the background when configured, so readiness flips once
// it completes.
func (a *Application) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.addr = ln.Addr().String()

	a.WebSocketHub.Start()

	if a.Config.Refresh.Schedule != "" {
		if err := a.Scheduler.Start(); err != nil {
			ln.Close()
			return fmt.Errorf("failed to start refresh scheduler: %w", err)
		}
	}

	if a.Config.Refresh.OnStart {
		go func() {
			if err := a.Scheduler.RunOnce(context.WithoutCancel(ctx)); err != nil {
				a.Logger.WarnContext(ctx, "initial dataset load failed, serving not-ready until a refresh succeeds",
					slog.String("error", err.Error()))
			}
		}()
	}

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			a.serveErr <- err
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", a.addr),
		slog.String("refresh_schedule", a.Config.Refresh.Schedule),
		slog.Bool("refresh_on_start", a.Config.Refresh.OnStart))
	return nil
}

// Addr returns the address the server listens on once started.
func (a *Application) Addr() string {
	return a.addr
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Scheduler.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("scheduler stop: %w", err))
	}
	// Hijacked websocket connections are not tracked by Shutdown; the hub
	// closes them.
	a.WebSocketHub.Stop()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run runs the application until interrupted or the server fails.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("Received shutdown signal")
	case serveErr = <-a.serveErr:
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout+5*time.Second)
	defer cancel()
	return errors.Join(serveErr, a.Stop(stopCtx))
}
