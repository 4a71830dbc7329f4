// Package kafka publishes order events.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/lcmcoursier/courier-quote/internal/core/domain"
)

// EventOrderReceived is the type of the event sent for every stored order.
const EventOrderReceived = "order.received"

// batchTimeout bounds how long a publish waits for a batch to fill. One
// event is written per submission, so the writer's 1s default would hold
// every request that long.
const batchTimeout = 10 * time.Millisecond

// Writer is the subset of *kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderReceivedEvent is the message payload.
type OrderReceivedEvent struct {
	Type       string              `json:"type"`
	OrderID    string              `json:"order_id"`
	ReceivedAt time.Time           `json:"received_at"`
	Fields     map[string][]string `json:"fields"`
}

// Publisher implements ports.OrderPublisher.
type Publisher struct {
	writer Writer
	log    zerolog.Logger
}

// NewPublisher writes to topic on broker. Messages with the same order id
// land on the same partition.
func NewPublisher(broker, topic string, log zerolog.Logger) *Publisher {
	return NewPublisherWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           batchTimeout,
		WriteTimeout:           5 * time.Second,
	}, log)
}

func NewPublisherWithWriter(w Writer, log zerolog.Logger) *Publisher {
	return &Publisher{writer: w, log: log}
}

func (p *Publisher) PublishOrderReceived(ctx context.Context, o *domain.Order) error {
	value, err := json.Marshal(OrderReceivedEvent{
		Type:       EventOrderReceived,
		OrderID:    o.ID,
		ReceivedAt: o.ReceivedAt,
		Fields:     o.Fields,
	})
	if err != nil {
		return fmt.Errorf("encode %s: %w", EventOrderReceived, err)
	}

	msg := kafka.Message{
		Key:   []byte(o.ID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventOrderReceived)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", EventOrderReceived, err)
	}
	p.log.Debug().Str("order_id", o.ID).Msg("order event published")
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
