package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ariefcatur/greengrove-market/internal/market"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const eventVersion = 1

// EventPublisher wraps payloads in a market.Envelope and hands them to a Producer.
type EventPublisher struct {
	Producer *Producer
	Service  string
	// TraceID extracts a request or trace id from ctx; optional.
	TraceID func(ctx context.Context) string
}

func (e *EventPublisher) Publish(ctx context.Context, topic, eventType, key string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	env := market.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  eventVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      e.Service,
		CorrelationID: key,
		Payload:       raw,
	}
	if e.TraceID != nil {
		env.TraceID = e.TraceID(ctx)
	}
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return e.Producer.Publish(ctx, kafka.Message{
		Topic:   topic,
		Key:     []byte(key),
		Value:   b,
		Time:    env.OccurredAt,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(eventType)}},
	})
}
