package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	"todo-planner/internal/bot"
	"todo-planner/internal/clock"
	"todo-planner/internal/config"
	"todo-planner/internal/handler"
	"todo-planner/internal/repository"
	"todo-planner/internal/service"
	"todo-planner/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	startupLogger := telemetry.NewLogger(os.Stdout, telemetry.ParseLevel(cfg.LogLevel))
	if err != nil {
		startupLogger.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}
	startupLogger.Info("starting application",
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("bot", cfg.BotEnabled()),
		slog.Bool("telemetry", cfg.TelemetryEnabled()),
	)

	logger := startupLogger
	if cfg.TelemetryEnabled() {
		var shutdown func(context.Context)
		logger, shutdown = initTelemetry(ctx, cfg, startupLogger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			shutdown(shutdownCtx)
		}()
	}

	db, err := repository.NewDB(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	snapshots := repository.NewSnapshotRepository(db)
	subscribers := repository.NewSubscriberRepository(db)

	var metrics *telemetry.Metrics
	persister := service.NewPersister(snapshots, logger, func(err error) {
		if metrics != nil {
			metrics.RecordPersistFailure(context.Background())
		}
	})

	taskSvc := service.NewTaskService(clock.NewSystem(cfg.Location), persister, service.WithLogger(logger))
	if err := taskSvc.Hydrate(ctx, snapshots); err != nil {
		logger.Warn("failed to load saved collection, starting from defaults", slog.Any("error", err))
	}

	metrics, err = telemetry.NewMetrics(otel.Meter(cfg.ServiceName), taskSvc.Count)
	if err != nil {
		logger.Error("failed to create metrics", slog.Any("error", err))
		os.Exit(1)
	}

	persistCtx, stopPersist := context.WithCancel(context.Background())
	persistDone := make(chan struct{})
	go func() {
		defer close(persistDone)
		persister.Run(persistCtx)
	}()

	reminderSvc := service.NewReminderService(taskSvc)
	scheduler := service.NewSchedulerService(cfg.Location, logger)

	if _, err := scheduler.ScheduleDaily("auto-delete", cfg.CleanupAt, func() {
		if removed := taskSvc.PurgeExpired(); removed > 0 {
			logger.Info("expired tasks removed", slog.Int("removed", removed))
		}
	}); err != nil {
		logger.Error("failed to schedule auto-delete", slog.Any("error", err))
		os.Exit(1)
	}

	botDone := make(chan struct{})
	if cfg.BotEnabled() {
		telegramBot, err := bot.New(cfg.TelegramToken, taskSvc, reminderSvc, subscribers, logger)
		if err != nil {
			logger.Error("failed to start bot", slog.Any("error", err))
			os.Exit(1)
		}
		if _, err := scheduler.ScheduleInterval("daily-report", cfg.ReportInterval, func() {
			jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("report delivery failed", slog.Any("error", err))
			}
		}); err != nil {
			logger.Error("failed to schedule reports", slog.Any("error", err))
			os.Exit(1)
		}
		go func() {
			defer close(botDone)
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("bot stopped with error", slog.Any("error", err))
			}
		}()
	} else {
		close(botDone)
	}

	scheduler.Start()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      newRouter(cfg, handler.NewTaskHandler(taskSvc, logger, metrics)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.Any("error", err))
	}
	scheduler.Stop()
	<-botDone

	stopPersist()
	<-persistDone
	if err := persister.Flush(shutdownCtx); err != nil {
		logger.Error("final save failed", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
}

func newRouter(cfg config.Config, taskHandler *handler.TaskHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler)

	// Health check endpoint (excluded from tracing)
	r.Get("/health", taskHandler.Health)

	r.Mount("/api/v1", taskHandler.Routes())

	return otelhttp.NewHandler(r, "http-server",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health"
		}),
	)
}

// initTelemetry installs the OTLP tracer, meter and logger providers. It
// returns the bridged logger and a shutdown func for all three.
func initTelemetry(ctx context.Context, cfg config.Config, startupLogger *slog.Logger) (*slog.Logger, func(context.Context)) {
	tp, err := telemetry.InitTracerProvider(ctx, cfg.ServiceName, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		startupLogger.Error("failed to initialize tracer provider", slog.Any("error", err))
		os.Exit(1)
	}

	mp, err := telemetry.InitMeterProvider(ctx, cfg.ServiceName, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		startupLogger.Error("failed to initialize meter provider", slog.Any("error", err))
		os.Exit(1)
	}

	lp, logger, err := telemetry.InitLoggerProvider(ctx, cfg.ServiceName, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		startupLogger.Error("failed to initialize logger provider", slog.Any("error", err))
		os.Exit(1)
	}

	return logger, func(ctx context.Context) {
		if err := lp.Shutdown(ctx); err != nil {
			startupLogger.Error("failed to shutdown logger provider", slog.Any("error", err))
		}
		if err := mp.Shutdown(ctx); err != nil {
			startupLogger.Error("failed to shutdown meter provider", slog.Any("error", err))
		}
		if err := tp.Shutdown(ctx); err != nil {
			startupLogger.Error("failed to shutdown tracer provider", slog.Any("error", err))
		}
	}
}
