package matching

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestShardedEngine_ConcurrentSymbolsDoNotInterfere(t *testing.T) {
	engine := NewEngine(zaptest.NewLogger(t))
	sharded, err := NewShardedEngine(engine, 4)
	require.NoError(t, err)
	defer sharded.Release()

	symbols := []string{"AAPL", "MSFT", "GOOG", "AMZN"}
	var wg sync.WaitGroup
	for _, sym := range symbols {
		sym := sym
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				_, _, err := sharded.Submit(1, sym, Buy, amt(100.00), 10)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	for _, sym := range symbols {
		book := engine.Book(sym)
		require.NotNil(t, book)
		snap := book.Snapshot(10)
		require.Len(t, snap.Bids, 1)
		assert.Equal(t, int64(250), snap.Bids[0].Quantity)
	}
}

func TestShardedEngine_CrossStillMatches(t *testing.T) {
	engine := NewEngine(zaptest.NewLogger(t))
	sharded, err := NewShardedEngine(engine, 2)
	require.NoError(t, err)
	defer sharded.Release()

	_, _, err = sharded.Submit(1, "AAPL", Buy, amt(150.00), 100)
	require.NoError(t, err)
	_, trades, err := sharded.Submit(2, "AAPL", Sell, amt(149.00), 100)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, amt(150.00), trades[0].Price)
}
