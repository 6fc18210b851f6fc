package transaction

import (
	"context"
	"strings"
	"time"
)

// DefaultCacheTTL is how long an aggregated fetch stays cached
const DefaultCacheTTL = 10 * time.Minute

// Cache stores the unfiltered, unpaginated record list fetched for a fingerprint.
// Entries are never mutated in place, only replaced or removed.
type Cache interface {
	// Get returns the cached records; ok is false on a miss or expired entry
	Get(ctx context.Context, key string) (records []Record, ok bool, err error)

	// Set stores records under key until now+ttl
	Set(ctx context.Context, key string, records []Record, ttl time.Duration) error

	// Remove deletes one entry
	Remove(ctx context.Context, key string) error

	// Clear deletes every entry, or returns ErrClearUnsupported
	Clear(ctx context.Context) error

	// SupportsClear declares whether Clear can succeed
	SupportsClear() bool
}

// ValidateCacheWrite checks the arguments every Cache.Set implementation must reject
func ValidateCacheWrite(key string, records []Record, ttl time.Duration) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidCacheKey
	}
	if records == nil {
		return ErrNilValue
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	return nil
}
