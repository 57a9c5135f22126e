package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/barstream/ohlcv-aggregation-service/internal/domain"
	"github.com/barstream/ohlcv-aggregation-service/internal/ports"
)

// envelope is the wire form of a domain event
type envelope struct {
	EventID    string       `json:"event_id"`
	EventType  string       `json:"event_type"`
	OccurredAt time.Time    `json:"occurred_at"`
	Payload    domain.Event `json:"payload"`
}

// messageWriter is the part of kafkago.Writer the publisher depends on
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher forwards domain events to a Kafka topic, keyed by symbol
// so per-symbol event order survives partitioning. Per the
// EventPublisher contract, delivery failures are logged and swallowed:
// the aggregation core must never see a broker outage as its own
// failure.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewPublisher creates a publisher for the given brokers and topic
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafkago.Hash{},
			AllowAutoTopicCreation: true,
		},
		logger: logger.With("component", "kafka_publisher"),
	}
}

// Publish forwards a single event
func (p *Publisher) Publish(ctx context.Context, event domain.Event) {
	p.PublishMany(ctx, []domain.Event{event})
}

// PublishMany forwards a batch of events in order
func (p *Publisher) PublishMany(ctx context.Context, events []domain.Event) {
	if len(events) == 0 {
		return
	}

	messages := make([]kafkago.Message, 0, len(events))
	for _, event := range events {
		value, err := json.Marshal(envelope{
			EventID:    event.EventID().String(),
			EventType:  event.EventType(),
			OccurredAt: event.OccurredAt(),
			Payload:    event,
		})
		if err != nil {
			p.logger.Error("failed to encode event",
				"event_type", event.EventType(),
				"event_id", event.EventID().String(),
				"error", err,
			)
			continue
		}
		messages = append(messages, kafkago.Message{
			Key:   []byte(event.AggregateSymbol()),
			Value: value,
		})
	}

	if len(messages) == 0 {
		return
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		p.logger.Error("failed to publish events",
			"count", len(messages),
			"error", err,
		)
		return
	}

	p.logger.Debug("published events", "count", len(messages))
}

// Close flushes and closes the underlying writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Ensure Publisher implements ports.EventPublisher
var _ ports.EventPublisher = (*Publisher)(nil)
