package transaction

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"transaction-aggregator/internal/domain/transaction"
	"transaction-aggregator/internal/infrastructure/resilience"
)

// ResilientSource is a source call that degrades instead of failing
type ResilientSource interface {
	Name() string
	Fetch(ctx context.Context, from, to time.Time) resilience.Outcome
	Status() resilience.Status
}

// Aggregator fans a window out to every registered source
type Aggregator struct {
	sources []ResilientSource
	logger  *zap.Logger
}

// NewAggregator creates an aggregator over sources in registration order
func NewAggregator(sources []ResilientSource, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{sources: sources, logger: logger}
}

// Aggregate calls every source concurrently and waits for all of them.
// Records are concatenated in registration order; records a source returned
// outside [from, to] are dropped.
func (a *Aggregator) Aggregate(ctx context.Context, from, to time.Time) ([]transaction.Record, []resilience.Outcome) {
	if len(a.sources) == 0 {
		return []transaction.Record{}, nil
	}

	mapper := iter.Mapper[ResilientSource, resilience.Outcome]{MaxGoroutines: len(a.sources)}
	outcomes := mapper.Map(a.sources, func(src *ResilientSource) resilience.Outcome {
		return (*src).Fetch(ctx, from, to)
	})

	size := 0
	for _, o := range outcomes {
		size += len(o.Records)
	}

	merged := make([]transaction.Record, 0, size)
	for _, o := range outcomes {
		dropped := 0
		for _, r := range o.Records {
			if !r.InWindow(from, to) {
				dropped++
				continue
			}
			merged = append(merged, r)
		}
		if dropped > 0 {
			a.logger.Warn("Dropped records outside the requested window",
				zap.String("source", o.Source),
				zap.Int("dropped", dropped),
			)
		}
	}

	return merged, outcomes
}

// Statuses returns the breaker status of every source in registration order
func (a *Aggregator) Statuses() []resilience.Status {
	statuses := make([]resilience.Status, len(a.sources))
	for i, src := range a.sources {
		statuses[i] = src.Status()
	}
	return statuses
}
