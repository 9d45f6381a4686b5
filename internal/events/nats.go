package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/pkg/nats"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NewNATSBus builds a Bus backed by NATS, for deployments where trade
// events need to reach consumers outside this process (a separate market
// data service, an external audit sink). The wire format and topic name
// are identical to the in-proc bus so consumers don't need to know which
// transport produced an event.
func NewNATSBus(url string, logger *zap.Logger) (*Bus, error) {
	wmLogger := watermill.NopLogger{}

	marshaler := &wmnats.NATSMarshaler{}

	publisher, err := wmnats.NewPublisher(
		wmnats.PublisherConfig{
			URL:         url,
			NatsOptions: []nats.Option{nats.Name("matchcore-publisher")},
			Marshaler:   marshaler,
		},
		wmLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("events: connect nats publisher: %w", err)
	}

	subscriber, err := wmnats.NewSubscriber(
		wmnats.SubscriberConfig{
			URL:         url,
			NatsOptions: []nats.Option{nats.Name("matchcore-subscriber")},
			Unmarshaler: marshaler,
		},
		wmLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("events: connect nats subscriber: %w", err)
	}

	return &Bus{pub: publisher, sub: subscriber, logger: logger}, nil
}
