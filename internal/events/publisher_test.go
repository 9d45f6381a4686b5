package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradecore/matchcore/internal/matching"
	"github.com/tradecore/matchcore/internal/money"
	"go.uber.org/zap/zaptest"
)

func TestBus_PublishAndSubscribeRoundTrip(t *testing.T) {
	bus := NewInProcBus(zaptest.NewLogger(t))
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	messages, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	trade := &matching.Trade{
		ID: 1, BuyOrderID: 1, SellOrderID: 2, Symbol: "AAPL",
		Price: money.NewFromFloat(150.00), Quantity: 100, Timestamp: time.Now(),
	}
	require.NoError(t, bus.PublishTrade(ctx, trade))

	select {
	case msg := <-messages:
		var event TradeEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, int64(1), event.TradeID)
		assert.Equal(t, "AAPL", event.Symbol)
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("timed out waiting for published trade event")
	}
}
