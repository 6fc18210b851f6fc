package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	apptx "transaction-aggregator/internal/application/transaction"
	"transaction-aggregator/internal/domain/transaction"
	"transaction-aggregator/internal/infrastructure/cache/memory"
	"transaction-aggregator/internal/infrastructure/cache/redis"
	"transaction-aggregator/internal/infrastructure/database/postgres"
	"transaction-aggregator/internal/infrastructure/metrics"
	"transaction-aggregator/internal/infrastructure/resilience"
	"transaction-aggregator/internal/infrastructure/sources"
	"transaction-aggregator/internal/interfaces/http/handler"
	"transaction-aggregator/internal/pkg/config"
)

// dependencies holds the backends built from configuration
type dependencies struct {
	cache   transaction.Cache
	sources []apptx.ResilientSource

	redisClient *redis.Client
	dbClient    *postgres.Client
}

func newDependencies(cfg *config.Config, zlog *zap.Logger, collector *metrics.Collector) (*dependencies, error) {
	deps := &dependencies{}

	// Ledger sources need a database connection
	if cfg.UsesLedger() {
		client, err := postgres.NewClient(postgres.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Name:            cfg.Database.Name,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		zlog.Info("Connected to PostgreSQL", zap.String("host", cfg.Database.Host), zap.Int("port", cfg.Database.Port))
		deps.dbClient = client
	}

	cache, err := deps.buildCache(cfg, zlog)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.cache = cache

	srcs, err := deps.buildSources(cfg, zlog, collector)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.sources = srcs

	return deps, nil
}

func (d *dependencies) buildCache(cfg *config.Config, zlog *zap.Logger) (transaction.Cache, error) {
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		client, err := redis.NewClient(redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return nil, err
		}
		zlog.Info("Connected to Redis", zap.String("host", cfg.Redis.Host), zap.Int("port", cfg.Redis.Port))
		d.redisClient = client
		return redis.NewTransactionCache(client, redis.TransactionCacheOptions{
			Namespace:  cfg.Cache.Namespace,
			AllowClear: cfg.Cache.AllowClear,
		}, zlog), nil
	default:
		zlog.Info("Using in-memory cache", zap.Duration("ttl", cfg.Cache.TTL))
		return memory.NewTransactionCache(cfg.Cache.TTL, cfg.Cache.CleanupInterval), nil
	}
}

func (d *dependencies) buildSources(cfg *config.Config, zlog *zap.Logger, collector *metrics.Collector) ([]apptx.ResilientSource, error) {
	settings := resilience.Settings{
		AttemptTimeout:   cfg.Resilience.AttemptTimeout,
		MaxRetries:       cfg.Resilience.MaxRetries,
		BackoffBase:      cfg.Resilience.BackoffBase,
		BackoffUnit:      cfg.Resilience.BackoffUnit,
		FailureThreshold: cfg.Resilience.FailureThreshold,
		OpenDuration:     cfg.Resilience.OpenDuration,
	}

	wrapped := make([]apptx.ResilientSource, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		var src transaction.Source
		switch sc.Kind {
		case config.SourceKindMock:
			src = sources.NewMockBank(sources.MockBankConfig{
				Name:          sc.Name,
				Currency:      sc.Currency,
				RecordsPerDay: sc.RecordsPerDay,
				FailureRate:   sc.FailureRate,
				Latency:       sc.Latency,
				Seed:          sc.Seed,
			})
		case config.SourceKindHTTP:
			src = sources.NewHTTPSource(sources.HTTPSourceConfig{
				Name:    sc.Name,
				BaseURL: sc.BaseURL,
				Timeout: sc.Timeout,
			})
		case config.SourceKindLedger:
			if d.dbClient == nil {
				return nil, fmt.Errorf("source %s: ledger requires a database connection", sc.Name)
			}
			ledger := postgres.NewLedgerSource(sc.Name, d.dbClient)
			if cfg.Database.AutoMigrate {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				err := ledger.Migrate(ctx)
				cancel()
				if err != nil {
					return nil, fmt.Errorf("source %s: migrate: %w", sc.Name, err)
				}
			}
			src = ledger
		default:
			return nil, fmt.Errorf("source %s: unknown kind %q", sc.Name, sc.Kind)
		}

		wrapped = append(wrapped, resilience.NewWrapper(src, settings, zlog, collector))
		zlog.Info("Registered source", zap.String("source", sc.Name), zap.String("kind", sc.Kind))
	}
	return wrapped, nil
}

func (d *dependencies) healthCheckers() map[string]handler.HealthChecker {
	checkers := make(map[string]handler.HealthChecker)
	if d.redisClient != nil {
		checkers["redis"] = d.redisClient
	}
	if d.dbClient != nil {
		checkers["database"] = d.dbClient
	}
	return checkers
}

// Close closes connections
func (d *dependencies) Close() {
	if d.dbClient != nil {
		d.dbClient.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
}
