// Package kafka publishes ledger integration events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/SscSPs/herd_ledger/internal/core/ports/events"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer messageWriter
}

var _ events.Publisher = (*Publisher)(nil)

// NewPublisher returns a Kafka publisher, or events.NopPublisher when no brokers are configured.
func NewPublisher(brokers []string, topic string) events.Publisher {
	if len(brokers) == 0 {
		return events.NopPublisher{}
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Publish writes the event as JSON, keyed so every event of one asset lands on the same partition.
func (p *Publisher) Publish(ctx context.Context, key string, event events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
