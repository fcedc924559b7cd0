package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/example/replenishment-service/internal/models"
)

var errProducerNotInitialised = errors.New("queue publisher: producer not initialised")

// SyncProducer captures the producer behaviour the publishers rely on.
type SyncProducer interface {
	PublishSync(topic string, key []byte, headers map[string][]byte, payload []byte) error
}

// EventPublisher writes inventory events to the main queue topic. Messages
// are keyed by correlation id so redeliveries and DLQ entries can be traced
// back to one logical business event.
type EventPublisher struct {
	producer SyncProducer
	topic    string
	logger   zerolog.Logger
}

// NewEventPublisher constructs an EventPublisher.
func NewEventPublisher(prod SyncProducer, topic string, logger zerolog.Logger) (*EventPublisher, error) {
	if prod == nil {
		return nil, errProducerNotInitialised
	}
	if topic == "" {
		return nil, errors.New("queue publisher: topic is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &EventPublisher{producer: prod, topic: topic, logger: logger}, nil
}

// PublishEvent enqueues the event synchronously.
func (p *EventPublisher) PublishEvent(_ context.Context, event models.InventoryEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("queue publisher: marshal inventory event: %w", err)
	}

	headers := map[string][]byte{
		"content-type":     []byte("application/json"),
		"x-correlation-id": []byte(event.CorrelationID),
	}

	if err := p.producer.PublishSync(p.topic, []byte(event.CorrelationID), headers, payload); err != nil {
		return fmt.Errorf("queue publisher: publish inventory event: %w", err)
	}

	p.logger.Debug().
		Str("correlation_id", event.CorrelationID).
		Str("product_id", event.ProductID).
		Msg("inventory event published")
	return nil
}

// DLQPublisher writes dead-letter records to the DLQ topic.
type DLQPublisher struct {
	producer SyncProducer
	topic    string
	logger   zerolog.Logger
}

// NewDLQPublisher constructs a DLQPublisher.
func NewDLQPublisher(prod SyncProducer, topic string, logger zerolog.Logger) (*DLQPublisher, error) {
	if prod == nil {
		return nil, errProducerNotInitialised
	}
	if topic == "" {
		return nil, errors.New("queue publisher: topic is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &DLQPublisher{producer: prod, topic: topic, logger: logger}, nil
}

// PublishDLQ writes the supplied dead-letter record synchronously.
func (p *DLQPublisher) PublishDLQ(_ context.Context, record models.DLQRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("queue publisher: marshal dlq record: %w", err)
	}

	headers := map[string][]byte{
		"content-type": []byte("application/json"),
	}

	if err := p.producer.PublishSync(p.topic, []byte(record.CorrelationID), headers, payload); err != nil {
		return fmt.Errorf("queue publisher: publish dlq record: %w", err)
	}
	return nil
}
