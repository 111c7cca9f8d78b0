package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"

	"pindex/internal/config"
	apperrors "pindex/internal/errors"
	"pindex/internal/infrastructure"
	customMiddleware "pindex/internal/middleware"
	"pindex/internal/services"
	handlers "pindex/internal/transport/http"
	"pindex/internal/validation"
)

// NotValidMessage is reported after a load that produced validation errors
const NotValidMessage = "The panel is not valid. Please fix errors in file and load it again"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Calculator    *services.CalculatorService
	HealthService *services.HealthService
	ErrorHandler  *apperrors.ErrorHandler

	mu       sync.Mutex
	listener net.Listener
}

// NewApplication wires the calculator, its telemetry and the HTTP view. A nil logger
// means the infrastructure logger.
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to initialize OpenTelemetry", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		ErrorHandler: apperrors.NewErrorHandler(
			infrastructure.WithComponent(logger, "errors"),
			cfg.Logging.Development,
			infrastructure.GetTraceID,
		),
	}

	if err := app.initializeServices(); err != nil {
		_ = otelProviders.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.setupRouter(); err != nil {
		_ = otelProviders.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}
	app.createServer()

	logger.Info("Application initialized",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.Float64("alpha_step", cfg.Calculation.AlphaStep),
		slog.Int("max_concurrency", cfg.Calculation.MaxConcurrency))

	return app, nil
}

func (a *Application) initializeServices() error {
	calc, err := services.NewCalculatorService(a.Config, a.OTelProviders, a.Logger)
	if err != nil {
		return err
	}

	calc.OnBeginUpdate(func(ctx context.Context) {
		a.Logger.DebugContext(ctx, "dataset update started")
	})
	calc.OnEndUpdate(func(ctx context.Context) {
		snap := calc.State()
		a.Logger.DebugContext(ctx, "dataset update finished",
			slog.Bool("loaded", snap.HasDataset()),
			slog.Bool("valid", snap.IsValid()))
	})

	a.Calculator = calc
	a.HealthService = services.NewHealthService(config.AppVersion, calc, a.Logger)
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	// RequestID → RealIP → OTel → Logger → Recoverer
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, nil)
	if err != nil {
		return fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
	}
	r.Use(otelMiddleware.Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.ErrorHandler))
	r.Use(customMiddleware.SecurityHeaders)

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	r.Get("/healthz", healthHandler.LivenessCheck)

	opts := handlers.DatasetHandlerOptions{
		MaxUploadBytes: a.Config.Server.MaxUploadBytes,
		Export:         a.Config.Export,
	}
	if rl := a.Config.Server.RateLimit; rl.Enabled {
		opts.UploadLimiter = customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger, a.ErrorHandler).Handler
	}
	datasetHandler := handlers.NewDatasetHandler(a.Calculator, opts, a.Logger, a.ErrorHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", healthHandler.StatusCheck)
		r.Mount("/", datasetHandler.Routes())
	})

	// Prometheus metrics endpoint
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
	return nil
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         a.Config.Addr(),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Addr returns the address the server listens on, empty before Start
func (a *Application) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Start binds the listen address and serves in the background. A serve failure
// calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.mu.Lock()
	a.listener = ln
	a.mu.Unlock()

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", ln.Addr().String()),
		slog.String("level", a.Config.Logging.Level))
	return nil
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
	if err := a.Close(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Close flushes telemetry. It is the only teardown a batch run needs.
func (a *Application) Close(ctx context.Context) error {
	if a.OTelProviders == nil {
		return nil
	}
	if err := a.OTelProviders.Shutdown(ctx); err != nil {
		return fmt.Errorf("OpenTelemetry shutdown error: %w", err)
	}
	return nil
}

// Run serves until interrupted or until ctx is done
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.Info("Received shutdown signal")

	// the serving context is gone, shutdown gets a fresh one
	return a.Stop(context.Background())
}

// BatchOptions configures RunBatch
type BatchOptions struct {
	Input     string
	OutputDir string
	Workbook  bool
}

// BatchReport is the outcome of RunBatch
type BatchReport struct {
	Snapshot *services.Snapshot
	Written  []string
}

// RunBatch loads the input file, prints validation errors to out and writes the
// available exports. A file that cannot be read is an error; a dataset with
// validation errors is not, and produces no index export.
func (a *Application) RunBatch(ctx context.Context, opts BatchOptions, out io.Writer) (*BatchReport, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = a.Config.Export.OutputDir
	}

	validator := validation.NewFileValidator(a.Logger)
	if err := validator.ValidateInputFile(opts.Input); err != nil {
		if apperrors.TypeOf(err) == "" {
			err = apperrors.NewLoadError(err).WithContext("source", opts.Input)
		}
		return nil, err
	}
	if err := validator.ValidateOutputDirectory(opts.OutputDir); err != nil {
		return nil, err
	}

	snap, err := a.Calculator.LoadFile(ctx, opts.Input)
	if err != nil {
		return nil, err
	}

	for _, e := range snap.Errors() {
		fmt.Fprintf(out, "%s: %s\n", e.Source, e.Message)
	}
	if !snap.IsValid() {
		fmt.Fprintln(out, NotValidMessage)
	}

	written, err := a.Calculator.ExportAll(ctx, opts.OutputDir, opts.Workbook)
	if err != nil {
		return nil, err
	}
	for _, path := range written {
		fmt.Fprintf(out, "wrote %s\n", path)
	}

	fmt.Fprintf(out, "%d observations, %d people, %d panels, %d results\n",
		len(snap.Observations()), len(snap.People()), len(snap.Panels()), len(snap.Results()))

	return &BatchReport{Snapshot: snap, Written: written}, nil
}
