package inventory

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/replenishment-service/internal/models"
	"github.com/example/replenishment-service/internal/store"
	"github.com/example/replenishment-service/internal/util"
)

type publisherStub struct {
	mu     sync.Mutex
	events []models.InventoryEvent
	err    error
}

func (p *publisherStub) PublishEvent(ctx context.Context, event models.InventoryEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *publisherStub) all() []models.InventoryEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.InventoryEvent, len(p.events))
	copy(out, p.events)
	return out
}

func newTestService(t *testing.T, threshold int) (*Service, *publisherStub, *Emitter) {
	t.Helper()

	stub := &publisherStub{}
	emitter, err := NewEmitter(stub, 8, 1, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("unexpected emitter error: %v", err)
	}
	emitter.Start(context.Background())

	svc, err := NewService(store.NewMemoryProducts(store.DemoProducts()), emitter, threshold, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc, stub, emitter
}

func waitForEvents(t *testing.T, stub *publisherStub, n int) []models.InventoryEvent {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		events := stub.all()
		if len(events) >= n {
			return events
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d events, have %d", n, len(stub.all()))
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestUpdateStockEmitsBelowThreshold(t *testing.T) {
	svc, stub, emitter := newTestService(t, 10)
	defer emitter.Close()

	product, correlationID, err := svc.UpdateStock(context.Background(), "prod-002", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if product.StockQuantity != 4 {
		t.Fatalf("expected stock 4, got %d", product.StockQuantity)
	}
	if correlationID == "" {
		t.Fatalf("expected correlation id for below-threshold update")
	}
	if _, err := util.ParseUUID(correlationID); err != nil {
		t.Fatalf("expected correlation id to be a uuid: %v", err)
	}

	events := waitForEvents(t, stub, 1)
	event := events[0]
	if event.CorrelationID != correlationID {
		t.Fatalf("expected event correlation id %q, got %q", correlationID, event.CorrelationID)
	}
	if event.EventType != models.EventTypeStockBelowThreshold {
		t.Fatalf("unexpected event type %q", event.EventType)
	}
	if event.CurrentStock != 4 || event.Threshold != 10 {
		t.Fatalf("unexpected stock fields %d/%d", event.CurrentStock, event.Threshold)
	}
	// Restock to twice the threshold: 20 - 4 = 16.
	if event.SuggestedOrderQuantity != 16 {
		t.Fatalf("expected suggested quantity 16, got %d", event.SuggestedOrderQuantity)
	}
	if event.SupplierID != "supp-002" {
		t.Fatalf("unexpected supplier id %q", event.SupplierID)
	}
	if _, err := util.ParseUUID(event.EventID); err != nil {
		t.Fatalf("expected event id to be a uuid: %v", err)
	}
}

func TestUpdateStockAboveThresholdEmitsNothing(t *testing.T) {
	svc, stub, emitter := newTestService(t, 10)

	_, correlationID, err := svc.UpdateStock(context.Background(), "prod-002", 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if correlationID != "" {
		t.Fatalf("expected no correlation id, got %q", correlationID)
	}

	emitter.Close()
	if events := stub.all(); len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestUpdateStockAtThresholdEmitsNothing(t *testing.T) {
	svc, stub, emitter := newTestService(t, 10)

	// The contract is strictly below threshold.
	_, correlationID, err := svc.UpdateStock(context.Background(), "prod-002", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if correlationID != "" {
		t.Fatalf("expected no emission at exact threshold")
	}

	emitter.Close()
	if events := stub.all(); len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestSuggestedQuantityNeverBelowThreshold(t *testing.T) {
	svc, stub, emitter := newTestService(t, 10)
	defer emitter.Close()

	// Stock 9 would suggest 20-9=11; stock 15 with threshold 10 never emits,
	// so drive the floor case with a nearly full threshold.
	_, _, err := svc.UpdateStock(context.Background(), "prod-002", 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events := waitForEvents(t, stub, 1)
	if events[0].SuggestedOrderQuantity < 10 {
		t.Fatalf("suggested quantity %d below threshold", events[0].SuggestedOrderQuantity)
	}
}

func TestSimulateSale(t *testing.T) {
	svc, stub, emitter := newTestService(t, 10)
	defer emitter.Close()

	result, err := svc.SimulateSale(context.Background(), "prod-002", 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RemainingStock != 3 {
		t.Fatalf("expected remaining stock 3, got %d", result.RemainingStock)
	}
	if !result.BelowThreshold {
		t.Fatalf("expected below-threshold flag set")
	}
	if result.CorrelationID == "" {
		t.Fatalf("expected correlation id for below-threshold sale")
	}

	events := waitForEvents(t, stub, 1)
	if events[0].CurrentStock != 3 {
		t.Fatalf("expected event stock 3, got %d", events[0].CurrentStock)
	}
}

func TestSimulateSaleInsufficientStock(t *testing.T) {
	svc, _, emitter := newTestService(t, 10)
	defer emitter.Close()

	if _, err := svc.SimulateSale(context.Background(), "prod-003", 100); !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestEmitterSubmitQueueFull(t *testing.T) {
	stub := &publisherStub{}
	emitter, err := NewEmitter(stub, 1, 1, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("unexpected emitter error: %v", err)
	}
	// Never started: the single queue slot fills and stays full.
	if err := emitter.Submit(models.InventoryEvent{CorrelationID: "a"}); err != nil {
		t.Fatalf("first submit should fit in queue: %v", err)
	}
	if err := emitter.Submit(models.InventoryEvent{CorrelationID: "b"}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestEmitterDrainsOnClose(t *testing.T) {
	stub := &publisherStub{}
	emitter, err := NewEmitter(stub, 8, 2, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("unexpected emitter error: %v", err)
	}
	emitter.Start(context.Background())

	for i := 0; i < 5; i++ {
		if err := emitter.Submit(models.InventoryEvent{CorrelationID: "c"}); err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
	}
	emitter.Close()

	if got := len(stub.all()); got != 5 {
		t.Fatalf("expected all 5 events published before Close returned, got %d", got)
	}
}
