package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/chidi150c/backtrader/internal/broker"
	"github.com/chidi150c/backtrader/internal/storage"
	"github.com/stretchr/testify/require"
)

func TestJournalRecordOrderUpsertsByRef(t *testing.T) {
	ctx := context.Background()
	j, err := storage.Open(":memory:")
	require.NoError(t, err)
	defer j.Close()

	o := broker.NewOrder("strat1", "BTC-USD", broker.Buy, broker.Market, 1, 0, 0, 0, time.Time{}, 0)
	o.SubmittedAt = time.Now().UTC()
	require.NoError(t, j.RecordOrder(ctx, o))

	n, err := j.OrderCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	o.RecordFill(1, 10.5, 0.01)
	require.NoError(t, j.RecordOrder(ctx, o))

	n, err = j.OrderCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n) // same ref, upserted not duplicated
}

func TestJournalRecordOrderSkipsUnchangedState(t *testing.T) {
	ctx := context.Background()
	j, err := storage.Open(":memory:")
	require.NoError(t, err)
	defer j.Close()

	o := broker.NewOrder("strat1", "BTC-USD", broker.Buy, broker.Market, 1, 0, 0, 0, time.Time{}, 0)
	require.NoError(t, j.RecordOrder(ctx, o))
	require.NoError(t, j.RecordOrder(ctx, o)) // identical state, should be a cache hit no-op

	n, err := j.OrderCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestJournalRecordTradeTracksOpenToClosed(t *testing.T) {
	ctx := context.Background()
	j, err := storage.Open(":memory:")
	require.NoError(t, err)
	defer j.Close()

	tr := broker.NewTrade("BTC-USD", 1, 10, time.Now().UTC())
	require.NoError(t, j.RecordTrade(ctx, tr))

	tr.ApplyFill(-1, 11, 0.01, 1.0, time.Now().UTC())
	require.NoError(t, j.RecordTrade(ctx, tr))

	n, err := j.TradeCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestJournalRecordNilIsNoOp(t *testing.T) {
	ctx := context.Background()
	j, err := storage.Open(":memory:")
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.RecordOrder(ctx, nil))
	require.NoError(t, j.RecordTrade(ctx, nil))
}
