package transaction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transaction-aggregator/internal/domain/transaction"
)

func TestAggregator_ConcatenatesInRegistrationOrder(t *testing.T) {
	slow := wrap("bank-a", func(context.Context, time.Time, time.Time) ([]transaction.Record, error) {
		time.Sleep(30 * time.Millisecond)
		return []transaction.Record{rec("a1", "bank-a", 2, 1, "Dining"), rec("a2", "bank-a", 3, 1, "Dining")}, nil
	})
	fast := static("bank-b", rec("b1", "bank-b", 4, 1, "Travel"))

	agg := NewAggregator([]ResilientSource{slow, fast}, nil)
	records, outcomes := agg.Aggregate(context.Background(), day(1), day(30))

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"a1", "a2", "b1"}, ids)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "bank-a", outcomes[0].Source)
	assert.Equal(t, "bank-b", outcomes[1].Source)
}

func TestAggregator_FailedSourceContributesNothing(t *testing.T) {
	failing := wrap("bank-a", func(context.Context, time.Time, time.Time) ([]transaction.Record, error) {
		return nil, transaction.NewFatalError("bank-a", errors.New("boom"))
	})
	ok := static("bank-b", rec("b1", "bank-b", 4, 1, "Travel"))

	agg := NewAggregator([]ResilientSource{failing, ok}, nil)
	records, outcomes := agg.Aggregate(context.Background(), day(1), day(30))

	require.Len(t, records, 1)
	assert.Equal(t, "b1", records[0].ID)
	assert.Error(t, outcomes[0].Err)
	assert.NoError(t, outcomes[1].Err)
}

func TestAggregator_DropsRecordsOutsideWindow(t *testing.T) {
	src := static("bank-a",
		rec("before", "bank-a", 1, 0, "Dining"),
		rec("inside", "bank-a", 5, 12, "Dining"),
		rec("after", "bank-a", 20, 0, "Dining"),
	)

	agg := NewAggregator([]ResilientSource{src}, nil)
	records, _ := agg.Aggregate(context.Background(), day(2), day(10))

	require.Len(t, records, 1)
	assert.Equal(t, "inside", records[0].ID)
}

func TestAggregator_RunsSourcesConcurrently(t *testing.T) {
	sleepy := func(name string) ResilientSource {
		return wrap(name, func(context.Context, time.Time, time.Time) ([]transaction.Record, error) {
			time.Sleep(60 * time.Millisecond)
			return []transaction.Record{}, nil
		})
	}
	agg := NewAggregator([]ResilientSource{sleepy("a"), sleepy("b"), sleepy("c"), sleepy("d")}, nil)

	start := time.Now()
	agg.Aggregate(context.Background(), day(1), day(30))

	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestAggregator_NoSources(t *testing.T) {
	records, outcomes := NewAggregator(nil, nil).Aggregate(context.Background(), day(1), day(30))

	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.Empty(t, outcomes)
}

func TestAggregator_Statuses(t *testing.T) {
	agg := NewAggregator([]ResilientSource{static("bank-a"), static("bank-b")}, nil)

	statuses := agg.Statuses()

	require.Len(t, statuses, 2)
	assert.Equal(t, "bank-a", statuses[0].Source)
	assert.Equal(t, "closed", statuses[1].State)
}
