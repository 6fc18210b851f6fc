package transaction

import (
	"context"
	"time"
)

// Source is one upstream provider of transaction records.
// Implementations may be slow or fail intermittently; they are not required
// to return a complete set, only records dated inside [from, to].
type Source interface {
	// Name returns the stable identifier of the source
	Name() string

	// Fetch returns the records for the window. Retryable failures should be
	// reported with NewTransientError.
	Fetch(ctx context.Context, from, to time.Time) ([]Record, error)
}

// SourceFunc adapts a function to the Source interface
type SourceFunc struct {
	SourceName string
	FetchFunc  func(ctx context.Context, from, to time.Time) ([]Record, error)
}

// Name returns the source name
func (s SourceFunc) Name() string {
	return s.SourceName
}

// Fetch calls FetchFunc
func (s SourceFunc) Fetch(ctx context.Context, from, to time.Time) ([]Record, error) {
	return s.FetchFunc(ctx, from, to)
}
