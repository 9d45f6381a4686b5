package pnl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradecore/matchcore/internal/matching"
	"github.com/tradecore/matchcore/internal/money"
	"go.uber.org/zap/zaptest"
)

type fakeStore struct {
	quantityDeltas []int64
	realizedDeltas []money.Amount
	historyCount   int
}

func (f *fakeStore) UpsertPosition(_ context.Context, _ int64, _ string, quantityDelta int64, _ money.Amount, realizedPnLDelta money.Amount) error {
	f.quantityDeltas = append(f.quantityDeltas, quantityDelta)
	f.realizedDeltas = append(f.realizedDeltas, realizedPnLDelta)
	return nil
}

func (f *fakeStore) InsertPnLHistory(_ context.Context, _ int64, _ string, _ int64, _ money.Amount) error {
	f.historyCount++
	return nil
}

func TestFlush_WritesTrueDeltaNotAbsolute(t *testing.T) {
	e := NewEngine(zaptest.NewLogger(t), time.Minute, time.Minute)
	store := &fakeStore{}
	ctx := context.Background()

	e.OnFill(1, "AAPL", matching.Buy, money.NewFromFloat(100.00), 10)
	require.NoError(t, e.Flush(ctx, store, 1, "AAPL", 1))
	assert.Equal(t, []int64{10}, store.quantityDeltas)

	e.OnFill(1, "AAPL", matching.Buy, money.NewFromFloat(110.00), 10)
	require.NoError(t, e.Flush(ctx, store, 1, "AAPL", 2))
	assert.Equal(t, []int64{10, 10}, store.quantityDeltas, "second flush ships only the new fill, not the running total")

	require.NoError(t, e.Flush(ctx, store, 1, "AAPL", 3))
	assert.Equal(t, []int64{10, 10, 0}, store.quantityDeltas, "a flush with no intervening fill ships a zero delta")
}

func TestFlush_OnlyWritesHistoryWhenRealizedPnLChanges(t *testing.T) {
	e := NewEngine(zaptest.NewLogger(t), time.Minute, time.Minute)
	store := &fakeStore{}
	ctx := context.Background()

	e.OnFill(1, "AAPL", matching.Buy, money.NewFromFloat(100.00), 10)
	require.NoError(t, e.Flush(ctx, store, 1, "AAPL", 1))
	assert.Equal(t, 0, store.historyCount)

	e.OnFill(1, "AAPL", matching.Sell, money.NewFromFloat(110.00), 10)
	require.NoError(t, e.Flush(ctx, store, 1, "AAPL", 2))
	assert.Equal(t, 1, store.historyCount)
}
