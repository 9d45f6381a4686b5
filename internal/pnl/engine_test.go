package pnl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tradecore/matchcore/internal/matching"
	"github.com/tradecore/matchcore/internal/money"
	"go.uber.org/zap/zaptest"
)

func newTestEngine(t *testing.T) *Engine {
	return NewEngine(zaptest.NewLogger(t), time.Minute, time.Minute)
}

func TestScenarioE_LongRoundTripProfit(t *testing.T) {
	e := newTestEngine(t)
	e.OnFill(1, "AAPL", matching.Buy, money.NewFromFloat(100.00), 10)
	pos := e.OnFill(1, "AAPL", matching.Sell, money.NewFromFloat(110.00), 10)

	assert.Equal(t, int64(0), pos.Quantity)
	assert.Equal(t, money.NewFromFloat(100.00), pos.RealizedPnL)
	assert.Equal(t, money.Zero, pos.AvgCost)
}

func TestScenarioF_WeightedAverage(t *testing.T) {
	e := newTestEngine(t)
	e.OnFill(1, "AAPL", matching.Buy, money.NewFromFloat(100.00), 10)
	pos := e.OnFill(1, "AAPL", matching.Buy, money.NewFromFloat(110.00), 10)

	assert.Equal(t, int64(20), pos.Quantity)
	assert.Equal(t, money.NewFromFloat(105.00), pos.AvgCost)
}

func TestScenarioG_LongToShortFlip(t *testing.T) {
	e := newTestEngine(t)
	e.OnFill(1, "AAPL", matching.Buy, money.NewFromFloat(100.00), 10)
	pos := e.OnFill(1, "AAPL", matching.Sell, money.NewFromFloat(110.00), 15)

	assert.Equal(t, money.NewFromFloat(100.00), pos.RealizedPnL)
	assert.Equal(t, int64(-5), pos.Quantity)
	assert.Equal(t, money.NewFromFloat(110.00), pos.AvgCost)
}

func TestShortCoverAndFlipToLong(t *testing.T) {
	e := newTestEngine(t)
	e.OnFill(1, "AAPL", matching.Sell, money.NewFromFloat(100.00), 10)
	pos := e.OnFill(1, "AAPL", matching.Buy, money.NewFromFloat(90.00), 15)

	assert.Equal(t, money.NewFromFloat(100.00), pos.RealizedPnL)
	assert.Equal(t, int64(5), pos.Quantity)
	assert.Equal(t, money.NewFromFloat(90.00), pos.AvgCost)
}

func TestInvariant_PositionConservation(t *testing.T) {
	e := newTestEngine(t)
	e.OnFill(1, "AAPL", matching.Buy, money.NewFromFloat(100.00), 30)
	e.OnFill(1, "AAPL", matching.Sell, money.NewFromFloat(105.00), 12)
	e.OnFill(1, "AAPL", matching.Buy, money.NewFromFloat(102.00), 7)

	pos := e.GetPosition(1, "AAPL")
	assert.Equal(t, int64(30-12+7), pos.Quantity)
}

func TestInvariant_PnLRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	e.OnFill(42, "MSFT", matching.Buy, money.NewFromFloat(300.00), 5)
	pos := e.OnFill(42, "MSFT", matching.Sell, money.NewFromFloat(300.00), 5)

	assert.Equal(t, money.Zero, pos.RealizedPnL)
	assert.Equal(t, int64(0), pos.Quantity)
}

func TestUnrealizedPnL(t *testing.T) {
	e := newTestEngine(t)
	e.OnFill(1, "AAPL", matching.Buy, money.NewFromFloat(100.00), 10)
	e.SetMark("AAPL", money.NewFromFloat(110.00))

	pos := e.GetPosition(1, "AAPL")
	assert.Equal(t, money.NewFromFloat(100.00), pos.UnrealizedPnL(money.NewFromFloat(110.00)))

	report := e.GenerateUserReport(1)
	assert.Equal(t, 100.0, report.TotalUnrealizedPnL)
}

func TestGeneratePortfolioReport_SortedDescending(t *testing.T) {
	e := newTestEngine(t)
	e.OnFill(1, "AAPL", matching.Buy, money.NewFromFloat(100.00), 10)
	e.OnFill(1, "AAPL", matching.Sell, money.NewFromFloat(150.00), 10)

	e.OnFill(2, "AAPL", matching.Buy, money.NewFromFloat(100.00), 10)
	e.OnFill(2, "AAPL", matching.Sell, money.NewFromFloat(90.00), 10)

	portfolio := e.GeneratePortfolioReport()
	assert.Equal(t, 2, portfolio.NumUsers)
	assert.Equal(t, int64(1), portfolio.Users[0].UserID)
	assert.True(t, portfolio.Users[0].TotalPnL > portfolio.Users[1].TotalPnL)
}

func TestFlatBreakEvenPositionOmittedFromReport(t *testing.T) {
	e := newTestEngine(t)
	e.OnFill(1, "AAPL", matching.Buy, money.NewFromFloat(100.00), 10)
	e.OnFill(1, "AAPL", matching.Sell, money.NewFromFloat(100.00), 10)

	report := e.GenerateUserReport(1)
	assert.Empty(t, report.Positions)
}
