package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	apptx "transaction-aggregator/internal/application/transaction"
	"transaction-aggregator/internal/infrastructure/http/router"
	"transaction-aggregator/internal/infrastructure/metrics"
	"transaction-aggregator/internal/interfaces/http/handler"
	"transaction-aggregator/internal/pkg/config"
	"transaction-aggregator/internal/pkg/logger"
)

const version = "1.0.0"

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	envFile := flag.String("env-file", ".env", "Path to an optional .env file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not load %s: %v", *envFile, err)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	os.Exit(exitCode(zlog, run(cfg, zlog)))
}

// exitCode logs a run failure and flushes the logger before the process exits
func exitCode(zlog *zap.Logger, err error) int {
	code := 0
	if err != nil {
		zlog.Error("Server failed", zap.Error(err))
		code = 1
	}
	_ = zlog.Sync()
	return code
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	zlog.Info("Starting Transaction Aggregator API",
		zap.String("version", version),
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	deps, err := newDependencies(cfg, zlog, collector)
	if err != nil {
		return err
	}
	defer deps.Close()

	useCase := apptx.NewGetTransactionsUseCase(
		deps.cache,
		apptx.NewAggregator(deps.sources, zlog),
		collector,
		zlog,
		apptx.Options{TTL: cfg.Cache.TTL},
	)

	// Initialize handlers
	transactionHandler := handler.NewTransactionHandler(useCase, zlog)
	healthHandler := handler.NewHealthHandler(deps.healthCheckers(), version)

	opts := router.Options{Logger: zlog, MetricsPath: cfg.Metrics.Path}
	if cfg.Metrics.Enabled {
		opts.MetricsHandler = handler.MetricsHandler(reg)
	}
	r := router.NewRouter(transactionHandler, healthHandler, opts)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		zlog.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		zlog.Info("Shutting down server", zap.String("signal", sig.String()))
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zlog.Error("Server shutdown error", zap.Error(err))
	}

	zlog.Info("Server stopped")
	return nil
}
