package ws

import (
	"context"
	"encoding/json"

	"github.com/tradecore/matchcore/internal/events"
	"github.com/tradecore/matchcore/internal/matching"
	"go.uber.org/zap"
)

// Bridge pushes every trade published on the event bus, and the
// resulting book snapshot, to the market data hub. Run it in its own
// goroutine for the lifetime of the process.
type Bridge struct {
	hub        *Hub
	engine     *matching.Engine
	bus        *events.Bus
	bookLevels int
	logger     *zap.Logger
}

// NewBridge wires hub to bus, pulling book depth from engine after every
// trade.
func NewBridge(hub *Hub, engine *matching.Engine, bus *events.Bus, bookLevels int, logger *zap.Logger) *Bridge {
	return &Bridge{hub: hub, engine: engine, bus: bus, bookLevels: bookLevels, logger: logger}
}

// Run blocks until ctx is cancelled or the bus closes.
func (b *Bridge) Run(ctx context.Context) error {
	messages, err := b.bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			b.handle(msg.Payload)
			msg.Ack()
		}
	}
}

func (b *Bridge) handle(payload []byte) {
	var event events.TradeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		b.logger.Warn("bridge: failed to decode trade event", zap.Error(err))
		return
	}

	b.hub.PublishTradeUpdate(event.Symbol, TradeUpdatePayload{
		Symbol:   event.Symbol,
		TradeID:  event.TradeID,
		Price:    event.Price,
		Quantity: event.Quantity,
	})

	snapshot := b.engine.Snapshot(event.Symbol, b.bookLevels)
	b.hub.PublishBookUpdate(event.Symbol, toBookUpdate(snapshot))
}

func toBookUpdate(snapshot matching.Snapshot) BookUpdatePayload {
	update := BookUpdatePayload{
		Symbol: snapshot.Symbol,
		Bids:   make([]BookLevel, len(snapshot.Bids)),
		Asks:   make([]BookLevel, len(snapshot.Asks)),
	}
	for i, level := range snapshot.Bids {
		update.Bids[i] = BookLevel{Price: level.Price.Float64(), Quantity: level.Quantity}
	}
	for i, level := range snapshot.Asks {
		update.Asks[i] = BookLevel{Price: level.Price.Float64(), Quantity: level.Quantity}
	}
	return update
}
