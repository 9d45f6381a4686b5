package reconcile

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

func order(id int64, symbol string, side matching.Side, price money.Amount, qty int64, ts time.Time) *matching.Order {
	return &matching.Order{ID: id, Symbol: symbol, Side: side, Price: price, Quantity: qty, Timestamp: ts}
}

func lookupFrom(orders ...*matching.Order) OrderLookup {
	byID := make(map[int64]*matching.Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}
	return func(id int64) (*matching.Order, bool) {
		o, ok := byID[id]
		return o, ok
	}
}

func TestReconcile_NoTradesYields100PercentAccuracy(t *testing.T) {
	r := New(zaptest.NewLogger(t))
	result := r.Reconcile(time.Now(), nil, lookupFrom())
	assert.Equal(t, 100.0, result.Accuracy)
	assert.Equal(t, 0, result.TotalTrades)
}

func TestInvariant_ReconciliationSoundness(t *testing.T) {
	now := time.Now()
	buy := order(1, "AAPL", matching.Buy, money.NewFromFloat(150.00), 100, now)
	sell := order(2, "AAPL", matching.Sell, money.NewFromFloat(149.00), 100, now.Add(time.Millisecond))
	trades := []*matching.Trade{{
		ID: 1, BuyOrderID: 1, SellOrderID: 2, Symbol: "AAPL",
		Price: money.NewFromFloat(150.00), Quantity: 100, Timestamp: now.Add(2 * time.Millisecond),
	}}

	r := New(zaptest.NewLogger(t))
	result := r.Reconcile(now, trades, lookupFrom(buy, sell))

	assert.Equal(t, 100.0, result.Accuracy)
	assert.Empty(t, result.Discrepancies)
}

func TestReconcile_OrderNotFound(t *testing.T) {
	trades := []*matching.Trade{{ID: 1, BuyOrderID: 99, SellOrderID: 2, Symbol: "AAPL", Quantity: 10, Timestamp: time.Now()}}
	r := New(zaptest.NewLogger(t))
	result := r.Reconcile(time.Now(), trades, lookupFrom())
	require.Len(t, result.Discrepancies, 1)
	assert.Equal(t, ReasonBuyOrderNotFound, result.Discrepancies[0].Reason)
}

func TestReconcile_SymbolMismatch(t *testing.T) {
	now := time.Now()
	buy := order(1, "AAPL", matching.Buy, money.NewFromFloat(150.00), 100, now)
	sell := order(2, "AAPL", matching.Sell, money.NewFromFloat(149.00), 100, now)
	trades := []*matching.Trade{{ID: 1, BuyOrderID: 1, SellOrderID: 2, Symbol: "MSFT", Price: money.NewFromFloat(150.00), Quantity: 100, Timestamp: now}}

	r := New(zaptest.NewLogger(t))
	result := r.Reconcile(now, trades, lookupFrom(buy, sell))
	require.Len(t, result.Discrepancies, 1)
	assert.Equal(t, ReasonSymbolMismatch, result.Discrepancies[0].Reason)
}

func TestReconcile_SideMismatch(t *testing.T) {
	now := time.Now()
	buy := order(1, "AAPL", matching.Sell, money.NewFromFloat(150.00), 100, now)
	sell := order(2, "AAPL", matching.Sell, money.NewFromFloat(149.00), 100, now)
	trades := []*matching.Trade{{ID: 1, BuyOrderID: 1, SellOrderID: 2, Symbol: "AAPL", Price: money.NewFromFloat(150.00), Quantity: 100, Timestamp: now}}

	r := New(zaptest.NewLogger(t))
	result := r.Reconcile(now, trades, lookupFrom(buy, sell))
	require.Len(t, result.Discrepancies, 1)
	assert.Equal(t, ReasonSideMismatch, result.Discrepancies[0].Reason)
}

func TestReconcile_PriceOutOfBand(t *testing.T) {
	now := time.Now()
	buy := order(1, "AAPL", matching.Buy, money.NewFromFloat(150.00), 100, now)
	sell := order(2, "AAPL", matching.Sell, money.NewFromFloat(149.00), 100, now)
	trades := []*matching.Trade{{ID: 1, BuyOrderID: 1, SellOrderID: 2, Symbol: "AAPL", Price: money.NewFromFloat(200.00), Quantity: 100, Timestamp: now}}

	r := New(zaptest.NewLogger(t))
	result := r.Reconcile(now, trades, lookupFrom(buy, sell))
	require.Len(t, result.Discrepancies, 1)
	assert.Equal(t, ReasonPriceOutOfBand, result.Discrepancies[0].Reason)
}

func TestReconcile_InvalidQuantity(t *testing.T) {
	now := time.Now()
	buy := order(1, "AAPL", matching.Buy, money.NewFromFloat(150.00), 100, now)
	sell := order(2, "AAPL", matching.Sell, money.NewFromFloat(149.00), 100, now)
	trades := []*matching.Trade{{ID: 1, BuyOrderID: 1, SellOrderID: 2, Symbol: "AAPL", Price: money.NewFromFloat(150.00), Quantity: 0, Timestamp: now}}

	r := New(zaptest.NewLogger(t))
	result := r.Reconcile(now, trades, lookupFrom(buy, sell))
	require.Len(t, result.Discrepancies, 1)
	assert.Equal(t, ReasonInvalidQuantity, result.Discrepancies[0].Reason)
}

func TestReconcile_CausalOrderViolated(t *testing.T) {
	now := time.Now()
	buy := order(1, "AAPL", matching.Buy, money.NewFromFloat(150.00), 100, now)
	sell := order(2, "AAPL", matching.Sell, money.NewFromFloat(149.00), 100, now)
	trades := []*matching.Trade{{ID: 1, BuyOrderID: 1, SellOrderID: 2, Symbol: "AAPL", Price: money.NewFromFloat(150.00), Quantity: 100, Timestamp: now.Add(-time.Hour)}}

	r := New(zaptest.NewLogger(t))
	result := r.Reconcile(now, trades, lookupFrom(buy, sell))
	require.Len(t, result.Discrepancies, 1)
	assert.Equal(t, ReasonCausalOrderViolated, result.Discrepancies[0].Reason)
}

type fakeAuditWriter struct {
	logged []Result
}

func (f *fakeAuditWriter) InsertReconciliationLog(_ context.Context, result Result) error {
	f.logged = append(f.logged, result)
	return nil
}

func TestRunAndLog_AlwaysWritesAuditRecord(t *testing.T) {
	r := New(zaptest.NewLogger(t))
	writer := &fakeAuditWriter{}

	result := r.RunAndLog(context.Background(), writer, time.Now(), nil, lookupFrom())
	assert.Equal(t, 100.0, result.Accuracy)
	require.Len(t, writer.logged, 1)
	assert.Equal(t, 0, writer.logged[0].TotalTrades)
}
