package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"seoaudit/internal/api"
	"seoaudit/internal/audit"
	"seoaudit/internal/config"
	"seoaudit/internal/jobs"
	"seoaudit/internal/log"
	"seoaudit/internal/messagebus"
	"seoaudit/internal/metrics"
	"seoaudit/internal/notifications"
	"seoaudit/internal/repository"
	"seoaudit/internal/tracing"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// Setup logging
	logger := log.SetupFromEnv(cfg.Service.Name, cfg.Service.Version)
	logger.Info("Starting SEO audit service")

	// Setup tracing
	if cfg.Tracing.Enabled {
		otelShutdown, err := tracing.SetupOTelSDK(ctx, cfg.Tracing, cfg.Service.Version)
		if err != nil {
			logger.Error("Failed to setup tracing", slog.Any("error", err))
			os.Exit(1)
		}
		defer otelShutdown(ctx)
	}

	// Initialize dependencies
	deps, cleanup, err := initializeDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize dependencies", slog.Any("error", err))
		os.Exit(1)
	}
	defer cleanup()

	apiOpts := []api.Option{
		api.WithWebSocket(http.HandlerFunc(deps.Notifications.WebSocketHandler().HandleWebSocket)),
		api.WithAllowPrivateTargets(cfg.Audit.AllowPrivateTargets),
	}
	if deps.Metrics != nil {
		apiOpts = append(apiOpts, api.WithMetrics(deps.Metrics))
	}
	apiService := api.NewAPI(deps.Jobs, deps.JobRepo, logger, apiOpts...)

	// Start server in goroutine
	go func() {
		if err := apiService.Start(ctx, cfg.HTTP); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Failed to start server", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("Shutting down SEO audit service", slog.String("signal", sig.String()))

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiService.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server gracefully", slog.Any("error", err))
	}
	if err := deps.Jobs.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to drain audit jobs", slog.Any("error", err))
	}

	logger.Info("SEO audit service stopped")
}

type dependencies struct {
	JobRepo       repository.JobRepositoryInterface
	Jobs          *jobs.Manager
	MessageBus    *messagebus.MessageBus
	Notifications *notifications.NotificationService
	Metrics       *metrics.AuditMetrics
	NC            *nats.Conn
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// Initialize metrics
	var (
		m  *metrics.AuditMetrics
		mc metrics.AuditMetricsInterface = metrics.NewNoopAuditMetrics()
	)
	if cfg.Metrics.Enabled {
		m = metrics.NewAuditMetrics(cfg.Service.Name)
		m.MustRegister(nil)
		m.SetServiceInfo(cfg.Service.Version)
		mc = m

		metricsServer := m.StartMetricsServer(cfg.Metrics.Port, func(err error) {
			logger.Error("Metrics server failed", slog.Any("error", err))
		})
		cleanups = append(cleanups, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			metricsServer.Shutdown(shutdownCtx)
		})
	}

	// Initialize job store
	jobRepo, err := newJobRepository(ctx, cfg.Store, mc, logger)
	if err != nil {
		return fail(err)
	}

	// Connect to NATS, or start an embedded server when no URL is configured
	nc, closeNATS, err := messagebus.Connect(cfg.NATS.URL, cfg.Service.Name, logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeNATS)

	mb := messagebus.New(nc, mc, logger)

	// Live job updates over websockets
	hub := notifications.NewHub(
		notifications.WithHubMetrics(mc),
		notifications.WithHubLogger(logger),
		notifications.WithMaxConnections(cfg.WebSocket.MaxConnections),
		notifications.WithWriteTimeout(cfg.WebSocket.WriteTimeout),
	)
	notifier := notifications.NewNotificationService(hub, mb, notifications.WithLogger(logger))
	if err := notifier.Start(ctx); err != nil {
		return fail(errors.Join(err, errors.New("failed to start notification service")))
	}
	cleanups = append(cleanups, func() {
		notifier.Stop()
		hub.Close()
	})

	// Audit pipeline and worker pool
	auditor := audit.NewFromConfig(cfg.Audit, mc, logger)
	manager := jobs.NewManager(auditor, jobRepo,
		jobs.WithWorkers(cfg.Audit.Workers),
		jobs.WithQueueSize(cfg.Audit.QueueSize),
		jobs.WithMessageBus(mb),
		jobs.WithMetrics(mc),
		jobs.WithLogger(logger),
	)
	manager.Start()

	return &dependencies{
		JobRepo:       jobRepo,
		Jobs:          manager,
		MessageBus:    mb,
		Notifications: notifier,
		Metrics:       m,
		NC:            nc,
	}, cleanup, nil
}

func newJobRepository(ctx context.Context, cfg config.StoreConfig, mc repository.MetricsCollector, logger *slog.Logger) (repository.JobRepositoryInterface, error) {
	switch cfg.Backend {
	case "", "memory":
		logger.Info("Using in-memory job store")
		return repository.NewMemoryJobRepository(mc), nil

	case "dynamodb":
		ddb, err := repository.NewDynamoDBClient(cfg.DynamoDB)
		if err != nil {
			return nil, err
		}
		repo := repository.NewDynamoJobRepository(ddb, cfg.DynamoDB.JobsTable, mc, logger)
		if err := repo.SeedTable(ctx); err != nil {
			return nil, errors.Join(err, errors.New("failed to seed jobs table"))
		}
		logger.Info("Using DynamoDB job store", slog.String("table", cfg.DynamoDB.JobsTable))
		return repo, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
