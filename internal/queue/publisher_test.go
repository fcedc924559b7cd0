package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/example/replenishment-service/internal/models"
)

type producerStub struct {
	mu       sync.Mutex
	topics   []string
	keys     [][]byte
	headers  []map[string][]byte
	payloads [][]byte
	err      error
}

func (p *producerStub) PublishSync(topic string, key []byte, headers map[string][]byte, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.keys = append(p.keys, key)
	p.headers = append(p.headers, headers)
	p.payloads = append(p.payloads, payload)
	return nil
}

func TestEventPublisherPublishEvent(t *testing.T) {
	stub := &producerStub{}
	pub, err := NewEventPublisher(stub, "inventory-events", zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	event := models.InventoryEvent{
		EventID:                "0b8f8cbe-0c44-4c8e-9a34-2d1a9f7c6e11",
		CorrelationID:          "4f2a1b3c-5d6e-4f70-8192-a3b4c5d6e7f8",
		EventType:              models.EventTypeStockBelowThreshold,
		ProductID:              "prod-001",
		ProductName:            "Wireless Headphones",
		CurrentStock:           5,
		Threshold:              10,
		SupplierID:             "supp-001",
		SuggestedOrderQuantity: 15,
	}
	if err := pub.PublishEvent(context.Background(), event); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if stub.topics[0] != "inventory-events" {
		t.Fatalf("unexpected topic %q", stub.topics[0])
	}
	if string(stub.keys[0]) != event.CorrelationID {
		t.Fatalf("expected message keyed by correlation id, got %q", stub.keys[0])
	}
	if got := string(stub.headers[0]["x-correlation-id"]); got != event.CorrelationID {
		t.Fatalf("expected correlation header, got %q", got)
	}

	var decoded models.InventoryEvent
	if err := json.Unmarshal(stub.payloads[0], &decoded); err != nil {
		t.Fatalf("payload not valid json: %v", err)
	}
	if decoded.ProductID != event.ProductID || decoded.SuggestedOrderQuantity != 15 {
		t.Fatalf("unexpected payload %+v", decoded)
	}
}

func TestEventPublisherPropagatesProducerError(t *testing.T) {
	stub := &producerStub{err: errors.New("broker unavailable")}
	pub, err := NewEventPublisher(stub, "inventory-events", zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := pub.PublishEvent(context.Background(), models.InventoryEvent{CorrelationID: "c"}); err == nil {
		t.Fatalf("expected producer error propagated")
	}
}

func TestDLQPublisherPublishDLQ(t *testing.T) {
	stub := &producerStub{}
	pub, err := NewDLQPublisher(stub, "inventory-events-dlq", zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record := models.DLQRecord{
		CorrelationID: "4f2a1b3c-5d6e-4f70-8192-a3b4c5d6e7f8",
		ProductID:     "prod-001",
		Attempts:      3,
		FailureType:   models.FailureTypeTransient,
		LastError:     "connection refused",
	}
	if err := pub.PublishDLQ(context.Background(), record); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if stub.topics[0] != "inventory-events-dlq" {
		t.Fatalf("unexpected topic %q", stub.topics[0])
	}

	var decoded models.DLQRecord
	if err := json.Unmarshal(stub.payloads[0], &decoded); err != nil {
		t.Fatalf("payload not valid json: %v", err)
	}
	if decoded.FailureType != models.FailureTypeTransient || decoded.Attempts != 3 {
		t.Fatalf("unexpected dlq payload %+v", decoded)
	}
}

func TestPublisherConstructorsValidate(t *testing.T) {
	if _, err := NewEventPublisher(nil, "topic", zerolog.Nop()); err == nil {
		t.Fatalf("expected error for nil producer")
	}
	if _, err := NewEventPublisher(&producerStub{}, "", zerolog.Nop()); err == nil {
		t.Fatalf("expected error for empty topic")
	}
	if _, err := NewDLQPublisher(nil, "topic", zerolog.Nop()); err == nil {
		t.Fatalf("expected error for nil producer")
	}
	if _, err := NewDLQPublisher(&producerStub{}, "", zerolog.Nop()); err == nil {
		t.Fatalf("expected error for empty topic")
	}
}
