package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradecore/matchcore/internal/money"
	"go.uber.org/zap/zaptest"
)

func amt(f float64) money.Amount { return money.NewFromFloat(f) }

func TestScenarioA_SimpleCross(t *testing.T) {
	e := NewEngine(zaptest.NewLogger(t))

	_, trades, err := e.Submit(1, "AAPL", Buy, amt(150.00), 100)
	require.NoError(t, err)
	assert.Empty(t, trades)

	sell, trades, err := e.Submit(2, "AAPL", Sell, amt(149.00), 100)
	require.NoError(t, err)
	require.Len(t, trades, 1)

	trade := trades[0]
	assert.Equal(t, "AAPL", trade.Symbol)
	assert.Equal(t, int64(100), trade.Quantity)
	assert.Equal(t, amt(150.00), trade.Price)
	assert.Equal(t, StatusFilled, sell.Status)

	book := e.Book("AAPL")
	require.NotNil(t, book)
	snap := book.Snapshot(10)
	assert.Empty(t, snap.Bids)
	assert.Empty(t, snap.Asks)
}

func TestScenarioB_PartialFill(t *testing.T) {
	e := NewEngine(zaptest.NewLogger(t))

	buy, _, err := e.Submit(1, "AAPL", Buy, amt(150.00), 100)
	require.NoError(t, err)

	sell, trades, err := e.Submit(2, "AAPL", Sell, amt(150.00), 50)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(50), trades[0].Quantity)
	assert.Equal(t, StatusFilled, sell.Status)
	assert.Equal(t, StatusPartial, buy.Status)
	assert.Equal(t, int64(50), buy.Remaining())
}

func TestScenarioC_NoCross(t *testing.T) {
	e := NewEngine(zaptest.NewLogger(t))

	buy, _, err := e.Submit(1, "AAPL", Buy, amt(100.00), 100)
	require.NoError(t, err)
	sell, trades, err := e.Submit(2, "AAPL", Sell, amt(150.00), 100)
	require.NoError(t, err)

	assert.Empty(t, trades)
	assert.Equal(t, StatusPending, buy.Status)
	assert.Equal(t, StatusPending, sell.Status)

	book := e.Book("AAPL")
	bestBuy, ok := book.BestBuy()
	require.True(t, ok)
	bestSell, ok := book.BestSell()
	require.True(t, ok)
	assert.Equal(t, amt(50.00), bestSell.Sub(bestBuy))
}

func TestScenarioD_PriceTimePriority(t *testing.T) {
	e := NewEngine(zaptest.NewLogger(t))

	buy1, _, err := e.Submit(1, "AAPL", Buy, amt(150.00), 100)
	require.NoError(t, err)

	buy2, _, err := e.Submit(2, "AAPL", Buy, amt(150.00), 100)
	require.NoError(t, err)
	require.False(t, buy2.Timestamp.Before(buy1.Timestamp))

	_, trades, err := e.Submit(3, "AAPL", Sell, amt(150.00), 100)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, buy1.ID, trades[0].BuyOrderID)

	assert.Equal(t, StatusFilled, buy1.Status)
	assert.Equal(t, StatusPending, buy2.Status)
}

func TestInvariant_NoCrossedBookAtRest(t *testing.T) {
	e := NewEngine(zaptest.NewLogger(t))
	_, _, err := e.Submit(1, "AAPL", Buy, amt(150.00), 100)
	require.NoError(t, err)
	_, _, err = e.Submit(2, "AAPL", Sell, amt(151.00), 100)
	require.NoError(t, err)

	assert.True(t, e.Book("AAPL").AtRest())
}

func TestInvariant_MonotoneOrderIDs(t *testing.T) {
	e := NewEngine(zaptest.NewLogger(t))
	var last int64
	for i := 0; i < 20; i++ {
		o, _, err := e.Submit(1, "AAPL", Buy, amt(100.00), 10)
		require.NoError(t, err)
		require.Greater(t, o.ID, last)
		last = o.ID
	}
}

func TestInvariant_PriceContainment(t *testing.T) {
	e := NewEngine(zaptest.NewLogger(t))
	_, _, err := e.Submit(1, "AAPL", Buy, amt(155.00), 100)
	require.NoError(t, err)
	_, trades, err := e.Submit(2, "AAPL", Sell, amt(145.00), 100)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Price >= amt(145.00))
	assert.True(t, trades[0].Price <= amt(155.00))
}

func TestSubmit_RejectsBadInput(t *testing.T) {
	e := NewEngine(zaptest.NewLogger(t))

	_, _, err := e.Submit(1, "AAPL", "HOLD", amt(100.00), 10)
	assert.ErrorIs(t, err, ErrUnknownSide)

	_, _, err = e.Submit(1, "AAPL", Buy, amt(0), 10)
	assert.ErrorIs(t, err, ErrNonPositivePrice)

	_, _, err = e.Submit(1, "AAPL", Buy, amt(100.00), 0)
	assert.ErrorIs(t, err, ErrNonPositiveQty)

	_, _, err = e.Submit(1, "   ", Buy, amt(100.00), 10)
	assert.ErrorIs(t, err, ErrEmptySymbol)

	_, _, err = e.Submit(1, "WAYTOOLONGSYMBOL", Buy, amt(100.00), 10)
	assert.ErrorIs(t, err, ErrSymbolTooLong)
}

func TestCancel(t *testing.T) {
	e := NewEngine(zaptest.NewLogger(t))
	order, _, err := e.Submit(1, "AAPL", Buy, amt(100.00), 10)
	require.NoError(t, err)

	require.NoError(t, e.Cancel(order.ID))
	assert.Equal(t, StatusCancelled, order.Status)

	err = e.Cancel(order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	err = e.Cancel(999999)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCancel_RejectsFilledOrder(t *testing.T) {
	e := NewEngine(zaptest.NewLogger(t))
	buy, _, err := e.Submit(1, "AAPL", Buy, amt(100.00), 10)
	require.NoError(t, err)
	_, trades, err := e.Submit(2, "AAPL", Sell, amt(100.00), 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)

	err = e.Cancel(buy.ID)
	assert.ErrorIs(t, err, ErrOrderNotResting)
}
