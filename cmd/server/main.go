package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/barstream/ohlcv-aggregation-service/internal/adapters/alpaca"
	httpAdapter "github.com/barstream/ohlcv-aggregation-service/internal/adapters/http"
	"github.com/barstream/ohlcv-aggregation-service/internal/adapters/kafka"
	"github.com/barstream/ohlcv-aggregation-service/internal/adapters/parquet"
	"github.com/barstream/ohlcv-aggregation-service/internal/adapters/postgres"
	"github.com/barstream/ohlcv-aggregation-service/internal/config"
	"github.com/barstream/ohlcv-aggregation-service/internal/domain"
	"github.com/barstream/ohlcv-aggregation-service/internal/services"
	"github.com/barstream/ohlcv-aggregation-service/internal/worker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	// Initialize logger
	logger := initLogger()
	slog.SetDefault(logger)

	logger.Info("starting ohlcv aggregation service")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Create root context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Build and start application
	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	// Start application components
	if err := app.Start(ctx); err != nil {
		logger.Error("failed to start application", "error", err)
		os.Exit(1)
	}

	// Wait for shutdown signal
	waitForShutdown(ctx, cancel, app, logger)
}

func initLogger() *slog.Logger {
	logLevel := os.Getenv("LOG_LEVEL")
	logFormat := os.Getenv("LOG_FORMAT")

	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if logFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// Application holds all components
type Application struct {
	db         *postgres.DB
	publisher  *kafka.Publisher
	httpServer *httpAdapter.Server
	ingestor   *worker.Ingestor
	logger     *slog.Logger
}

func buildApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("building application")

	// 1. Infrastructure Layer - Database
	db, err := postgres.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	// 2. Infrastructure Layer - Repositories and Stores
	jobRepo := postgres.NewJobRepository(db)
	summaryRepo := postgres.NewSummaryRepository(db)
	barStore := parquet.NewWriter(cfg.Storage.BaseDir, logger)
	publisher := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)

	// 3. Infrastructure Layer - Market Data Provider
	provider := alpaca.NewClient(
		alpaca.WithBaseURL(cfg.Provider.BaseURL),
		alpaca.WithCredentials(cfg.Provider.KeyID, cfg.Provider.SecretKey),
		alpaca.WithFeed(cfg.Provider.Feed),
		alpaca.WithTimeout(cfg.Provider.Timeout),
		alpaca.WithRetry(cfg.Provider.MaxRetries, cfg.Provider.RetryBackoff),
		alpaca.WithLogger(logger),
	)

	// 4. Service Layer
	ingestService := services.NewIngestService(
		publisher,
		summaryRepo,
		barStore,
		cfg.Storage.Timeframes,
		logger,
	)

	metricsService := services.NewMetricsService(
		summaryRepo,
		jobRepo,
		provider,
		ingestService,
		len(cfg.Ingest.Symbols),
		logger,
	)

	// 5. Transport Layer - HTTP Server
	httpServer := httpAdapter.NewServer(
		cfg.Server,
		ingestService,
		metricsService,
		jobRepo,
		summaryRepo,
		provider,
		db,
		logger,
	)

	// 6. Background Workers
	symbols := make([]domain.Symbol, 0, len(cfg.Ingest.Symbols))
	for _, raw := range cfg.Ingest.Symbols {
		symbol, err := domain.NewSymbol(raw)
		if err != nil {
			db.Close()
			return nil, err
		}
		symbols = append(symbols, symbol)
	}

	ingestor := worker.NewIngestor(
		provider,
		ingestService,
		jobRepo,
		metricsService,
		symbols,
		cfg.Ingest.Cron,
		cfg.Ingest.CloseCron,
		logger,
	)

	logger.Info("application built successfully",
		"symbols", len(symbols),
		"provider", provider.ProviderID(),
		"feed", cfg.Provider.Feed,
	)

	return &Application{
		db:         db,
		publisher:  publisher,
		httpServer: httpServer,
		ingestor:   ingestor,
		logger:     logger,
	}, nil
}

func (a *Application) Start(ctx context.Context) error {
	a.logger.Info("starting application components")

	// Start scheduled ingestion
	if err := a.ingestor.Start(ctx); err != nil {
		return err
	}

	// Start HTTP server in background (will block until shutdown)
	go func() {
		if err := a.httpServer.Start(); err != nil {
			a.logger.Error("http server error", "error", err)
		}
	}()

	a.logger.Info("application started",
		"http_addr", a.httpServer.Addr(),
	)

	return nil
}

func (a *Application) Shutdown() {
	a.logger.Info("shutting down application")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop scheduled ingestion first
	if err := a.ingestor.Stop(); err != nil {
		a.logger.Error("failed to stop ingestor", "error", err)
	}

	// Stop HTTP server
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("failed to shutdown http server", "error", err)
	}

	// Flush the event publisher
	if err := a.publisher.Close(); err != nil {
		a.logger.Error("failed to close publisher", "error", err)
	}

	// Close database connection
	a.db.Close()

	a.logger.Info("application shutdown complete")
}

func waitForShutdown(ctx context.Context, cancel context.CancelFunc, app *Application, logger *slog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
		app.Shutdown()
	case <-ctx.Done():
		app.Shutdown()
	}
}
