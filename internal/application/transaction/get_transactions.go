package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"transaction-aggregator/internal/domain/transaction"
	"transaction-aggregator/internal/infrastructure/metrics"
	"transaction-aggregator/internal/infrastructure/resilience"
)

// GetTransactionsInput is the boundary's view of a query
type GetTransactionsInput struct {
	From     time.Time
	To       time.Time
	Category string
	Page     int
	PageSize int
	Tenant   string
}

// Options configures GetTransactionsUseCase
type Options struct {
	// TTL is how long an aggregated fetch stays cached
	TTL time.Duration
	// Now is the clock used for query validation
	Now func() time.Time
}

// GetTransactionsUseCase answers transaction queries with cache-aside over
// the aggregated sources. Source and orchestration failures degrade to an
// empty page; only invalid queries and failed cache writes are reported.
type GetTransactionsUseCase struct {
	cache      transaction.Cache
	aggregator *Aggregator
	metrics    *metrics.Collector
	logger     *zap.Logger

	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group
}

// NewGetTransactionsUseCase creates a new use case instance
func NewGetTransactionsUseCase(
	cache transaction.Cache,
	aggregator *Aggregator,
	collector *metrics.Collector,
	logger *zap.Logger,
	opts Options,
) *GetTransactionsUseCase {
	if opts.TTL <= 0 {
		opts.TTL = transaction.DefaultCacheTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GetTransactionsUseCase{
		cache:      cache,
		aggregator: aggregator,
		metrics:    collector,
		logger:     logger,
		ttl:        opts.TTL,
		now:        opts.Now,
	}
}

// Execute validates the query, serves it from cache or the sources, and
// returns the requested page.
func (uc *GetTransactionsUseCase) Execute(ctx context.Context, input GetTransactionsInput) (result *transaction.PagedResult, err error) {
	start := time.Now()
	q := transaction.NewQuery(input.From, input.To, input.Category, input.Page, input.PageSize, input.Tenant)
	if err := q.ValidateAt(uc.now()); err != nil {
		return nil, err
	}

	key := q.Fingerprint()
	logger := uc.logger.With(
		zap.String("correlation_id", uuid.NewString()),
		zap.String("key", key),
	)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recovered from panic while serving query", zap.Any("panic", r), zap.Stack("stack"))
			result, err = transaction.EmptyResult(q), nil
		}
	}()

	records, cached, err := uc.load(ctx, q, key, logger)
	if err != nil {
		if errors.Is(err, transaction.ErrCacheWrite) {
			return nil, err
		}
		logger.Error("Query failed, returning empty result", zap.Error(err))
		return transaction.EmptyResult(q), nil
	}

	result = transaction.Process(records, q)
	uc.metrics.ObserveQuery(cached, time.Since(start))
	logger.Debug("Query served",
		zap.Bool("cached", cached),
		zap.Int("total", result.Total),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// load returns the unfiltered record list for key, aggregating on a miss.
// Concurrent misses for the same key share one aggregation.
func (uc *GetTransactionsUseCase) load(ctx context.Context, q transaction.Query, key string, logger *zap.Logger) ([]transaction.Record, bool, error) {
	records, ok, err := uc.cache.Get(ctx, key)
	if err != nil {
		uc.metrics.CacheError()
		return nil, false, fmt.Errorf("read cache: %w", err)
	}
	if ok {
		uc.metrics.CacheHit()
		return records, true, nil
	}
	uc.metrics.CacheMiss()

	v, err, shared := uc.group.Do(key, func() (interface{}, error) {
		// Caller cancellation does not reach the sources; attempts are
		// bounded by the per-source timeout instead.
		fetchCtx := context.WithoutCancel(ctx)

		from, to := q.Window()
		fetched, outcomes := uc.aggregator.Aggregate(fetchCtx, from, to)
		uc.logOutcomes(logger, outcomes)

		if err := uc.cache.Set(fetchCtx, key, fetched, uc.ttl); err != nil {
			uc.metrics.CacheError()
			return fetched, fmt.Errorf("%w: %w", transaction.ErrCacheWrite, err)
		}
		return fetched, nil
	})
	if shared {
		logger.Debug("Shared in-flight aggregation")
	}
	if err != nil {
		return nil, false, err
	}
	return v.([]transaction.Record), false, nil
}

func (uc *GetTransactionsUseCase) logOutcomes(logger *zap.Logger, outcomes []resilience.Outcome) {
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			logger.Warn("Source contributed no records",
				zap.String("source", o.Source),
				zap.Int("attempts", o.Attempts),
				zap.Error(o.Err),
			)
		}
	}
	logger.Info("Aggregated sources",
		zap.Int("sources", len(outcomes)),
		zap.Int("failed", failed),
	)
}

// Invalidate removes the cache entry for one query
func (uc *GetTransactionsUseCase) Invalidate(ctx context.Context, input GetTransactionsInput) error {
	q := transaction.NewQuery(input.From, input.To, input.Category, input.Page, input.PageSize, input.Tenant)
	if err := q.ValidateAt(uc.now()); err != nil {
		return err
	}
	if err := uc.cache.Remove(ctx, q.Fingerprint()); err != nil {
		return fmt.Errorf("failed to invalidate %s: %w", q.Fingerprint(), err)
	}
	uc.logger.Info("Cache entry invalidated", zap.String("key", q.Fingerprint()))
	return nil
}

// ClearCache removes every cache entry. It returns ErrClearUnsupported when
// the backing store does not declare clear support.
func (uc *GetTransactionsUseCase) ClearCache(ctx context.Context) error {
	if !uc.cache.SupportsClear() {
		return transaction.ErrClearUnsupported
	}
	if err := uc.cache.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	uc.logger.Info("Cache cleared")
	return nil
}

// Sources returns the breaker status of every registered source
func (uc *GetTransactionsUseCase) Sources() []resilience.Status {
	return uc.aggregator.Statuses()
}
