package memory

import (
	"context"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"

	"transaction-aggregator/internal/domain/transaction"
)

// TransactionCache is an in-process transaction cache. Values are stored as
// typed slices, so unlike the remote cache there is nothing to decode and no
// corrupted-entry path.
type TransactionCache struct {
	store *cache.Cache
}

// NewTransactionCache creates a cache that purges expired entries every cleanupInterval
func NewTransactionCache(defaultTTL, cleanupInterval time.Duration) *TransactionCache {
	if defaultTTL <= 0 {
		defaultTTL = transaction.DefaultCacheTTL
	}
	return &TransactionCache{store: cache.New(defaultTTL, cleanupInterval)}
}

// Get returns a copy of the cached records for key
func (c *TransactionCache) Get(_ context.Context, key string) ([]transaction.Record, bool, error) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false, nil
	}
	records, ok := v.([]transaction.Record)
	if !ok {
		c.store.Delete(key)
		return nil, false, nil
	}
	return slices.Clone(records), true, nil
}

// Set stores a copy of records under key until now+ttl
func (c *TransactionCache) Set(_ context.Context, key string, records []transaction.Record, ttl time.Duration) error {
	if err := transaction.ValidateCacheWrite(key, records, ttl); err != nil {
		return err
	}
	stored := slices.Clone(records)
	if stored == nil {
		stored = []transaction.Record{}
	}
	c.store.Set(key, stored, ttl)
	return nil
}

// Remove deletes one entry
func (c *TransactionCache) Remove(_ context.Context, key string) error {
	c.store.Delete(key)
	return nil
}

// Clear deletes every entry
func (c *TransactionCache) Clear(_ context.Context) error {
	c.store.Flush()
	return nil
}

// SupportsClear always returns true
func (c *TransactionCache) SupportsClear() bool {
	return true
}

// Len returns the number of stored entries, including expired ones not yet purged
func (c *TransactionCache) Len() int {
	return c.store.ItemCount()
}
