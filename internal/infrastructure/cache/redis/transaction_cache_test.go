package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transaction-aggregator/internal/domain/transaction"
)

func newTestCache(t *testing.T, allowClear bool) (*TransactionCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewTransactionCache(Wrap(rdb), TransactionCacheOptions{AllowClear: allowClear}, nil), mr
}

func sampleRecords() []transaction.Record {
	return []transaction.Record{
		{
			ID:       "a-1",
			Date:     time.Date(2025, 9, 3, 10, 0, 0, 0, time.UTC),
			Amount:   decimal.RequireFromString("12.34"),
			Currency: "USD",
			Category: "Groceries",
			Source:   "bank-a",
		},
		{
			ID:       "b-1",
			Date:     time.Date(2025, 9, 2, 8, 30, 0, 0, time.UTC),
			Amount:   decimal.RequireFromString("-5.00"),
			Currency: "EUR",
			Category: "Travel",
			Source:   "bank-b",
		},
	}
}

func TestTransactionCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t, false)
	ctx := context.Background()
	records := sampleRecords()

	require.NoError(t, c.Set(ctx, "transactions:acme:k", records, time.Minute))
	assert.True(t, mr.Exists("aggregator:transactions:acme:k"))

	got, ok, err := c.Get(ctx, "transactions:acme:k")

	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 2)
	for i := range records {
		assert.Equal(t, records[i].ID, got[i].ID)
		assert.True(t, records[i].Amount.Equal(got[i].Amount))
		assert.True(t, records[i].Date.Equal(got[i].Date))
		assert.Equal(t, records[i].Source, got[i].Source)
	}
}

func TestTransactionCache_EmptyListIsHit(t *testing.T) {
	c, _ := newTestCache(t, false)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []transaction.Record{}, time.Minute))

	got, ok, err := c.Get(ctx, "k")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestTransactionCache_Miss(t *testing.T) {
	c, _ := newTestCache(t, false)

	got, ok, err := c.Get(context.Background(), "missing")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestTransactionCache_Expiry(t *testing.T) {
	c, mr := newTestCache(t, false)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", sampleRecords(), 10*time.Minute))

	mr.FastForward(10*time.Minute + time.Second)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTransactionCache_CorruptedEntryEvicted(t *testing.T) {
	c, mr := newTestCache(t, false)
	require.NoError(t, mr.Set("aggregator:k", "{not json"))

	got, ok, err := c.Get(context.Background(), "k")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.False(t, mr.Exists("aggregator:k"))
}

func TestTransactionCache_SetValidation(t *testing.T) {
	c, _ := newTestCache(t, false)
	ctx := context.Background()

	assert.ErrorIs(t, c.Set(ctx, " ", sampleRecords(), time.Minute), transaction.ErrInvalidCacheKey)
	assert.ErrorIs(t, c.Set(ctx, "k", nil, time.Minute), transaction.ErrNilValue)
	assert.ErrorIs(t, c.Set(ctx, "k", sampleRecords(), -time.Second), transaction.ErrInvalidTTL)
}

func TestTransactionCache_Remove(t *testing.T) {
	c, mr := newTestCache(t, false)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", sampleRecords(), time.Minute))

	require.NoError(t, c.Remove(ctx, "k"))

	assert.False(t, mr.Exists("aggregator:k"))
	assert.NoError(t, c.Remove(ctx, "k"))
}

func TestTransactionCache_Clear(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		c, _ := newTestCache(t, false)

		assert.False(t, c.SupportsClear())
		assert.ErrorIs(t, c.Clear(context.Background()), transaction.ErrClearUnsupported)
	})

	t.Run("enabled removes only namespaced keys", func(t *testing.T) {
		c, mr := newTestCache(t, true)
		ctx := context.Background()
		for i := 0; i < 250; i++ {
			require.NoError(t, c.Set(ctx, "transactions:"+time.Duration(i).String(), sampleRecords(), time.Minute))
		}
		require.NoError(t, mr.Set("other:key", "keep"))

		require.True(t, c.SupportsClear())
		require.NoError(t, c.Clear(ctx))

		assert.Equal(t, []string{"other:key"}, mr.Keys())
	})
}
