package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradecore/matchcore/internal/matching"
	"github.com/tradecore/matchcore/internal/money"
)

func TestMemoryStore_UpsertPositionIsAdditive(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.UpsertPosition(ctx, 1, "AAPL", 10, money.NewFromFloat(100.00), money.Zero))
	require.NoError(t, s.UpsertPosition(ctx, 1, "AAPL", 5, money.NewFromFloat(105.00), money.NewFromFloat(20.00)))

	rows, err := s.LoadPositions(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(15), rows[0].Quantity)
	assert.Equal(t, money.NewFromFloat(20.00), rows[0].RealizedPnL)
}

func TestMemoryStore_BulkInsertOrdersAssignsIDsInOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ids, err := s.BulkInsertOrders(ctx, []OrderRow{
		{UserID: 1, Symbol: "AAPL", Side: matching.Buy, Price: money.NewFromFloat(100.00), Quantity: 10},
		{UserID: 2, Symbol: "AAPL", Side: matching.Sell, Price: money.NewFromFloat(101.00), Quantity: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	order, err := s.GetOrder(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, int64(1), order.UserID)
}

func TestMemoryStore_AccuracyStatsEmptyWhenNoHistory(t *testing.T) {
	s := NewMemoryStore()
	stats, err := s.AccuracyStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalChecks)
}
