package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"transaction-aggregator/internal/domain/transaction"
)

// Call outcomes reported to the Recorder
const (
	OutcomeSuccess   = "success"
	OutcomeTransient = "transient"
	OutcomeFatal     = "fatal"
	OutcomeRejected  = "rejected"
)

// Settings holds the per-source resilience policy
type Settings struct {
	AttemptTimeout   time.Duration
	MaxRetries       int
	BackoffBase      float64
	BackoffUnit      time.Duration
	FailureThreshold int
	OpenDuration     time.Duration

	// Now is the breaker clock; defaults to time.Now
	Now func() time.Time
}

// DefaultSettings returns 5s attempts, 3 retries with 2^n second backoff and
// a breaker that opens for 30s after 5 consecutive transient failures
func DefaultSettings() Settings {
	return Settings{
		AttemptTimeout:   5 * time.Second,
		MaxRetries:       3,
		BackoffBase:      2,
		BackoffUnit:      time.Second,
		FailureThreshold: 5,
		OpenDuration:     30 * time.Second,
	}
}

// Recorder receives call outcomes and breaker transitions
type Recorder interface {
	ObserveSourceCall(source, outcome string, attempts int, duration time.Duration)
	SetBreakerState(source, state string)
}

// Outcome is the result of one resilient fetch. Records is never nil; it is
// empty whenever Err is set.
type Outcome struct {
	Source   string
	Records  []transaction.Record
	Err      error
	Attempts int
	Duration time.Duration
}

// Status is a point-in-time view of a wrapped source
type Status struct {
	Source              string `json:"source"`
	State               string `json:"state"`
	ConsecutiveFailures int    `json:"consecutiveFailures"`
}

// Wrapper decorates a source with circuit breaker -> retry -> timeout.
// The breaker is outermost, so an open circuit short-circuits before any
// attempt or backoff is spent.
type Wrapper struct {
	source   transaction.Source
	settings Settings
	breaker  *Breaker
	logger   *zap.Logger
	recorder Recorder
}

// NewWrapper creates a resilience wrapper with its own breaker
func NewWrapper(source transaction.Source, settings Settings, logger *zap.Logger, recorder Recorder) *Wrapper {
	defaults := DefaultSettings()
	if settings.AttemptTimeout <= 0 {
		settings.AttemptTimeout = defaults.AttemptTimeout
	}
	if settings.MaxRetries < 0 {
		settings.MaxRetries = 0
	}
	if settings.BackoffBase <= 0 {
		settings.BackoffBase = defaults.BackoffBase
	}
	if settings.BackoffUnit <= 0 {
		settings.BackoffUnit = defaults.BackoffUnit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &Wrapper{
		source:   source,
		settings: settings,
		logger:   logger.With(zap.String("source", source.Name())),
		recorder: recorder,
	}
	w.breaker = NewBreaker(BreakerSettings{
		FailureThreshold: settings.FailureThreshold,
		OpenDuration:     settings.OpenDuration,
		Now:              settings.Now,
		OnStateChange:    w.onStateChange,
	})
	if recorder != nil {
		recorder.SetBreakerState(source.Name(), StateClosed.String())
	}
	return w
}

// Name returns the wrapped source name
func (w *Wrapper) Name() string {
	return w.source.Name()
}

// Breaker exposes the source's breaker for status reporting
func (w *Wrapper) Breaker() *Breaker {
	return w.breaker
}

// Status reports the breaker state of the source
func (w *Wrapper) Status() Status {
	return Status{
		Source:              w.Name(),
		State:               w.breaker.State().String(),
		ConsecutiveFailures: w.breaker.Failures(),
	}
}

// Fetch runs the resilient call. Failures never propagate: once the breaker
// rejects the call or attempts are exhausted the outcome carries an empty
// record list and the error for reporting.
func (w *Wrapper) Fetch(ctx context.Context, from, to time.Time) Outcome {
	start := time.Now()
	outcome := Outcome{Source: w.Name(), Records: []transaction.Record{}}

	generation, err := w.breaker.Allow()
	if err != nil {
		outcome.Err = fmt.Errorf("source %s: %w", w.Name(), err)
		outcome.Duration = time.Since(start)
		w.logger.Debug("Call rejected by open circuit")
		w.observe(OutcomeRejected, 0, outcome.Duration)
		return outcome
	}

	records, attempts, err := w.retry(ctx, from, to)
	outcome.Attempts = attempts
	outcome.Duration = time.Since(start)

	if err != nil {
		transient := transaction.IsTransient(err)
		w.breaker.RecordFailure(generation, transient)
		outcome.Err = err

		if transient {
			w.logger.Warn("Source exhausted retries", zap.Int("attempts", attempts), zap.Error(err))
			w.observe(OutcomeTransient, attempts, outcome.Duration)
		} else {
			w.logger.Error("Source failed with non-retryable error", zap.Int("attempts", attempts), zap.Error(err))
			w.observe(OutcomeFatal, attempts, outcome.Duration)
		}
		return outcome
	}

	w.breaker.RecordSuccess(generation)
	if records != nil {
		outcome.Records = records
	}
	w.observe(OutcomeSuccess, attempts, outcome.Duration)
	return outcome
}

// retry makes up to 1+MaxRetries attempts, backing off base^n units between
// them. Only transient errors are retried.
func (w *Wrapper) retry(ctx context.Context, from, to time.Time) ([]transaction.Record, int, error) {
	var lastErr error
	for attempt := 0; attempt <= w.settings.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, w.backoff(attempt)); err != nil {
				return nil, attempt, lastErr
			}
		}

		records, err := w.attempt(ctx, from, to)
		if err == nil {
			return records, attempt + 1, nil
		}
		lastErr = err

		if !transaction.IsTransient(err) {
			return nil, attempt + 1, err
		}
		w.logger.Debug("Attempt failed, will retry", zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return nil, w.settings.MaxRetries + 1, lastErr
}

// attempt bounds a single source call by AttemptTimeout. The call runs in its
// own goroutine so a source that ignores its context still cannot hold the
// caller past the deadline.
func (w *Wrapper) attempt(ctx context.Context, from, to time.Time) ([]transaction.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, w.settings.AttemptTimeout)
	defer cancel()

	type result struct {
		records []transaction.Record
		err     error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: transaction.NewFatalError(w.Name(), fmt.Errorf("panic: %v", r))}
			}
		}()
		records, err := w.source.Fetch(ctx, from, to)
		done <- result{records: records, err: err}
	}()

	select {
	case res := <-done:
		return res.records, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, transaction.NewTransientError(w.Name(),
				fmt.Errorf("attempt timed out after %s: %w", w.settings.AttemptTimeout, ctx.Err()))
		}
		return nil, ctx.Err()
	}
}

func (w *Wrapper) backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(w.settings.BackoffBase, float64(attempt)) * float64(w.settings.BackoffUnit))
}

// onStateChange runs under the breaker lock, so the gauge follows transition order
func (w *Wrapper) onStateChange(from, to State) {
	switch to {
	case StateOpen:
		w.logger.Warn("Circuit opened", zap.String("from", from.String()), zap.Duration("cooldown", w.settings.OpenDuration))
	default:
		w.logger.Info("Circuit state changed", zap.String("from", from.String()), zap.String("to", to.String()))
	}
	if w.recorder != nil {
		w.recorder.SetBreakerState(w.Name(), to.String())
	}
}

func (w *Wrapper) observe(outcome string, attempts int, d time.Duration) {
	if w.recorder != nil {
		w.recorder.ObserveSourceCall(w.Name(), outcome, attempts, d)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
