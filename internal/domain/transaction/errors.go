package transaction

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrInvalidQuery is matched by every *ValidationError
	ErrInvalidQuery = errors.New("invalid transaction query")

	// ErrCircuitOpen is returned when a source's circuit breaker rejects a call
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrCacheWrite is returned when the aggregated result could not be cached
	ErrCacheWrite = errors.New("failed to write transactions to cache")

	// ErrCorruptEntry is returned when a cached value cannot be decoded
	ErrCorruptEntry = errors.New("cached entry is corrupted")

	// ErrClearUnsupported is returned by backing stores that cannot clear all entries
	ErrClearUnsupported = errors.New("cache clear is not supported by this backing store")

	// ErrInvalidCacheKey is returned when a cache key is empty
	ErrInvalidCacheKey = errors.New("cache key must not be empty")

	// ErrInvalidTTL is returned when a cache TTL is not positive
	ErrInvalidTTL = errors.New("cache ttl must be positive")

	// ErrNilValue is returned when a nil record list is cached
	ErrNilValue = errors.New("cache value must not be nil")
)

// ValidationError describes a query that violates an invariant.
// It is always surfaced to the caller as a client error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrInvalidQuery) match any validation error
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidQuery
}

// SourceError is a failure reported by (or on behalf of) an upstream source
type SourceError struct {
	Source    string
	Transient bool
	Err       error
}

// NewTransientError marks err as retryable
func NewTransientError(source string, err error) *SourceError {
	return &SourceError{Source: source, Transient: true, Err: err}
}

// NewFatalError marks err as not retryable
func NewFatalError(source string, err error) *SourceError {
	return &SourceError{Source: source, Transient: false, Err: err}
}

func (e *SourceError) Error() string {
	kind := "fatal"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("source %s: %s error: %v", e.Source, kind, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err should be retried. Deadline overruns and
// network timeouts are transient; anything not explicitly classified is fatal.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var srcErr *SourceError
	if errors.As(err, &srcErr) {
		return srcErr.Transient
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
