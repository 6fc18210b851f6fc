package transaction

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"transaction-aggregator/internal/domain/transaction"
	"transaction-aggregator/internal/infrastructure/resilience"
)

var refNow = time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2025, 9, d, 0, 0, 0, 0, time.UTC)
}

func rec(id, source string, d int, hour int, category string) transaction.Record {
	return transaction.Record{
		ID:       id,
		Date:     day(d).Add(time.Duration(hour) * time.Hour),
		Amount:   decimal.NewFromInt(int64(d*100 + hour)),
		Currency: "USD",
		Category: category,
		Source:   source,
	}
}

func fastSettings() resilience.Settings {
	return resilience.Settings{
		AttemptTimeout:   200 * time.Millisecond,
		MaxRetries:       2,
		BackoffBase:      2,
		BackoffUnit:      time.Millisecond,
		FailureThreshold: 5,
		OpenDuration:     time.Minute,
	}
}

func wrap(name string, fn func(ctx context.Context, from, to time.Time) ([]transaction.Record, error)) ResilientSource {
	return resilience.NewWrapper(transaction.SourceFunc{SourceName: name, FetchFunc: fn}, fastSettings(), nil, nil)
}

func static(name string, records ...transaction.Record) ResilientSource {
	return wrap(name, func(context.Context, time.Time, time.Time) ([]transaction.Record, error) {
		return records, nil
	})
}

type stubCache struct {
	getFn    func(ctx context.Context, key string) ([]transaction.Record, bool, error)
	setFn    func(ctx context.Context, key string, records []transaction.Record, ttl time.Duration) error
	removeFn func(ctx context.Context, key string) error
	clearFn  func(ctx context.Context) error
	canClear bool
}

func (s *stubCache) Get(ctx context.Context, key string) ([]transaction.Record, bool, error) {
	if s.getFn != nil {
		return s.getFn(ctx, key)
	}
	return nil, false, nil
}

func (s *stubCache) Set(ctx context.Context, key string, records []transaction.Record, ttl time.Duration) error {
	if s.setFn != nil {
		return s.setFn(ctx, key, records, ttl)
	}
	return nil
}

func (s *stubCache) Remove(ctx context.Context, key string) error {
	if s.removeFn != nil {
		return s.removeFn(ctx, key)
	}
	return nil
}

func (s *stubCache) Clear(ctx context.Context) error {
	if s.clearFn != nil {
		return s.clearFn(ctx)
	}
	return nil
}

func (s *stubCache) SupportsClear() bool {
	return s.canClear
}
