package marketdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradecore/matchcore/internal/matching"
	"github.com/tradecore/matchcore/internal/money"
	"go.uber.org/zap/zaptest"
)

func TestValidator_RejectsSymbolWithNoBook(t *testing.T) {
	engine := matching.NewEngine(zaptest.NewLogger(t))
	v := NewValidator(engine)

	err := v.CheckSymbol("AAPL")
	require.Error(t, err)
	var unknown *ErrUnknownSymbol
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "AAPL", unknown.Symbol)
}

func TestValidator_AcceptsSymbolAfterFirstOrder(t *testing.T) {
	engine := matching.NewEngine(zaptest.NewLogger(t))
	_, _, err := engine.Submit(1, "AAPL", matching.Buy, money.NewFromFloat(100), 10)
	require.NoError(t, err)

	v := NewValidator(engine)
	assert.NoError(t, v.CheckSymbol("AAPL"))
}

func TestValidator_CheckSymbolsReturnsFirstUnknown(t *testing.T) {
	engine := matching.NewEngine(zaptest.NewLogger(t))
	_, _, err := engine.Submit(1, "AAPL", matching.Buy, money.NewFromFloat(100), 10)
	require.NoError(t, err)

	v := NewValidator(engine)
	err = v.CheckSymbols([]string{"AAPL", "MSFT"})
	require.Error(t, err)
	var unknown *ErrUnknownSymbol
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "MSFT", unknown.Symbol)
}
