package correlation

import (
	"context"
	"testing"

	"github.com/example/replenishment-service/internal/models"
)

func TestMemoryStoreRecordAndLookup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, found, err := store.Lookup(ctx, "corr-1"); err != nil || found {
		t.Fatalf("expected miss on empty store, got found=%v err=%v", found, err)
	}

	result := models.OrderResult{
		OrderID:       "ORD-20240501-ABCDEF12",
		Status:        models.OrderStatusConfirmed,
		CorrelationID: "corr-1",
	}
	if err := store.Record(ctx, "corr-1", result); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	got, found, err := store.Lookup(ctx, "corr-1")
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%v err=%v", found, err)
	}
	if got.OrderID != result.OrderID {
		t.Fatalf("unexpected order id %q", got.OrderID)
	}
}

func TestMemoryStoreFirstWriteWins(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := models.OrderResult{OrderID: "ORD-1", Status: models.OrderStatusConfirmed}
	second := models.OrderResult{OrderID: "ORD-2", Status: models.OrderStatusConfirmed}

	if err := store.Record(ctx, "corr-1", first); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if err := store.Record(ctx, "corr-1", second); err != nil {
		t.Fatalf("second record failed: %v", err)
	}

	got, found, err := store.Lookup(ctx, "corr-1")
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%v err=%v", found, err)
	}
	if got.OrderID != "ORD-1" {
		t.Fatalf("expected first write to win, got %q", got.OrderID)
	}
}

func TestMemoryStoreRejectsEmptyCorrelationID(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Record(context.Background(), "", models.OrderResult{}); err == nil {
		t.Fatalf("expected error for empty correlation id")
	}
}

func TestMemoryStoreLookupReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Record(ctx, "corr-1", models.OrderResult{OrderID: "ORD-1"}); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	got, _, _ := store.Lookup(ctx, "corr-1")
	got.OrderID = "mutated"

	again, _, _ := store.Lookup(ctx, "corr-1")
	if again.OrderID != "ORD-1" {
		t.Fatalf("lookup result was not isolated from caller mutation: %q", again.OrderID)
	}
}
