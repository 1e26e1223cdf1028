package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
)

const eventVersion = 1

// Sender is satisfied by *Producer.
type Sender interface {
	Send(ctx context.Context, m kafka.Message) error
}

// Publisher wraps domain payloads in the versioned envelope and hands them
// to a Sender.
type Publisher struct {
	sender  Sender
	service string
	now     func() time.Time
}

func NewPublisher(sender Sender, service string) *Publisher {
	return &Publisher{sender: sender, service: service, now: func() time.Time { return time.Now().UTC() }}
}

func (p *Publisher) Publish(ctx context.Context, topic, eventType, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  eventVersion,
		OccurredAt:    p.now(),
		Producer:      p.service,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: key,
		Payload:       body,
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.sender.Send(ctx, kafka.Message{
		Topic: topic,
		Key:   orders.PartitionKey(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(eventType)},
			{Key: "x-event-version", Value: []byte(strconv.Itoa(eventVersion))},
		},
	})
}
