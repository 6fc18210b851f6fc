package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"transaction-aggregator/internal/domain/transaction"
)

// DefaultNamespace prefixes cache keys when no namespace is configured
const DefaultNamespace = "aggregator:"

// TransactionCacheOptions configures the remote transaction cache
type TransactionCacheOptions struct {
	// Namespace is prepended to every fingerprint
	Namespace string
	// AllowClear enables Clear. It is off by default because it walks the keyspace.
	AllowClear bool
}

// TransactionCache stores aggregated record lists in Redis as JSON
type TransactionCache struct {
	client *Client
	opts   TransactionCacheOptions
	logger *zap.Logger
}

// NewTransactionCache creates a new Redis-backed transaction cache
func NewTransactionCache(client *Client, opts TransactionCacheOptions, logger *zap.Logger) *TransactionCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	return &TransactionCache{
		client: client,
		opts:   opts,
		logger: logger.With(zap.String("cache", "redis")),
	}
}

// Get returns the cached records for key. An entry that fails to decode is
// evicted and reported as a miss.
func (c *TransactionCache) Get(ctx context.Context, key string) ([]transaction.Record, bool, error) {
	data, err := c.client.Get(ctx, c.key(key))
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}

	var records []transaction.Record
	if err := json.Unmarshal(data, &records); err != nil || records == nil {
		c.logger.Warn("Evicting corrupted cache entry",
			zap.String("key", key),
			zap.Error(errors.Join(transaction.ErrCorruptEntry, err)),
		)
		if delErr := c.client.Del(ctx, c.key(key)); delErr != nil {
			c.logger.Error("Failed to evict corrupted cache entry", zap.String("key", key), zap.Error(delErr))
		}
		return nil, false, nil
	}

	return records, true, nil
}

// Set stores records under key with the given TTL
func (c *TransactionCache) Set(ctx context.Context, key string, records []transaction.Record, ttl time.Duration) error {
	if err := transaction.ValidateCacheWrite(key, records, ttl); err != nil {
		return err
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.key(key), data, ttl); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Remove deletes one entry
func (c *TransactionCache) Remove(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Clear deletes every entry under the namespace when AllowClear is set
func (c *TransactionCache) Clear(ctx context.Context) error {
	if !c.opts.AllowClear {
		return transaction.ErrClearUnsupported
	}

	removed, err := c.client.DeleteMatching(ctx, c.opts.Namespace+"*")
	if err != nil {
		return err
	}
	c.logger.Info("Cache cleared", zap.Int("removed", removed))
	return nil
}

// SupportsClear reports whether Clear is enabled
func (c *TransactionCache) SupportsClear() bool {
	return c.opts.AllowClear
}

func (c *TransactionCache) key(fingerprint string) string {
	return c.opts.Namespace + fingerprint
}
