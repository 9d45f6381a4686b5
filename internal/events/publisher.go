// Package events publishes executed trades onto an in-process (or NATS)
// message bus after the matching loop completes, so downstream
// subscribers (such as the websocket market data bridge) never block
// order submission. P&L and persistence are not fed from the bus; the
// API order handler applies them directly.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/tradecore/matchcore/internal/matching"
	"github.com/tradecore/matchcore/internal/money"
	"go.uber.org/zap"
)

// TopicTrades is the single topic every trade is published to; the
// symbol is carried in the envelope rather than split across topics, so
// a single subscriber can watch the whole market.
const TopicTrades = "trades"

// TradeEvent is the wire envelope for one executed trade.
type TradeEvent struct {
	EventID     string    `json:"event_id"`
	TradeID     int64     `json:"trade_id"`
	BuyOrderID  int64     `json:"buy_order_id"`
	SellOrderID int64     `json:"sell_order_id"`
	Symbol      string    `json:"symbol"`
	Price       float64   `json:"price"`
	Quantity    int64     `json:"quantity"`
	Timestamp   time.Time `json:"timestamp"`
}

func newTradeEvent(t *matching.Trade) TradeEvent {
	return TradeEvent{
		EventID:     uuid.NewString(),
		TradeID:     t.ID,
		BuyOrderID:  t.BuyOrderID,
		SellOrderID: t.SellOrderID,
		Symbol:      t.Symbol,
		Price:       t.Price.Float64(),
		Quantity:    t.Quantity,
		Timestamp:   t.Timestamp,
	}
}

// PriceAmount returns the event's price as a money.Amount, for consumers that
// want fixed-point arithmetic rather than the wire float64.
func (e TradeEvent) PriceAmount() money.Amount {
	return money.NewFromFloat(e.Price)
}

// Publisher is the narrow interface executed trades are published through.
type Publisher interface {
	PublishTrade(ctx context.Context, trade *matching.Trade) error
	Close() error
}

// Bus wraps a watermill message.Publisher/Subscriber pair. InProc uses
// gochannel; a NATS-backed Bus satisfies the same interface by
// constructing with a different pub/sub pair (see nats.go).
type Bus struct {
	pub    message.Publisher
	sub    message.Subscriber
	logger *zap.Logger
}

// NewInProcBus builds a Bus backed by watermill's gochannel pub/sub,
// suitable for a single-process deployment or tests.
func NewInProcBus(logger *zap.Logger) *Bus {
	wmLogger := watermill.NopLogger{}
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 1024,
		Persistent:          false,
	}, wmLogger)

	return &Bus{pub: pubsub, sub: pubsub, logger: logger}
}

// PublishTrade marshals and publishes a TradeEvent. This is
// fire-and-forget from the matching loop's point of view: neither the
// loop nor Engine.Submit calls this; the API order handler calls it for
// each trade after Engine.Submit has returned.
func (b *Bus) PublishTrade(_ context.Context, trade *matching.Trade) error {
	event := newTradeEvent(trade)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: marshal trade event: %w", err)
	}

	msg := message.NewMessage(event.EventID, payload)
	if err := b.pub.Publish(TopicTrades, msg); err != nil {
		return fmt.Errorf("events: publish trade event: %w", err)
	}

	if b.logger != nil {
		b.logger.Debug("trade event published", zap.Int64("trade_id", trade.ID), zap.String("event_id", event.EventID))
	}
	return nil
}

// Subscribe returns a channel of raw messages on the trades topic;
// callers are responsible for unmarshaling into TradeEvent and Ack()ing.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.sub.Subscribe(ctx, TopicTrades)
}

// Close shuts down the underlying publisher/subscriber.
func (b *Bus) Close() error {
	if err := b.pub.Close(); err != nil {
		return err
	}
	if b.sub != nil && any(b.sub) != any(b.pub) {
		return b.sub.Close()
	}
	return nil
}
