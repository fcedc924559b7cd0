package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/example/replenishment-service/internal/inventory"
	"github.com/example/replenishment-service/internal/models"
	"github.com/example/replenishment-service/internal/store"
)

type publisherStub struct {
	events chan models.InventoryEvent
}

func (p *publisherStub) PublishEvent(ctx context.Context, event models.InventoryEvent) error {
	p.events <- event
	return nil
}

func newBackend(t *testing.T) (*gin.Engine, *publisherStub, *inventory.Emitter) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stub := &publisherStub{events: make(chan models.InventoryEvent, 8)}
	emitter, err := inventory.NewEmitter(stub, 8, 1, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("unexpected emitter error: %v", err)
	}
	emitter.Start(context.Background())

	svc, err := inventory.NewService(store.NewMemoryProducts(store.DemoProducts()), emitter, 10, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return NewBackendRouter(svc), stub, emitter
}

func TestListProducts(t *testing.T) {
	router, _, emitter := newBackend(t)
	defer emitter.Close()

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var products []models.Product
	if err := json.Unmarshal(w.Body.Bytes(), &products); err != nil {
		t.Fatalf("decode products: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(products))
	}
}

func TestGetProduct(t *testing.T) {
	router, _, emitter := newBackend(t)
	defer emitter.Close()

	req := httptest.NewRequest(http.MethodGet, "/products/prod-001", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/products/prod-999", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %d", w.Code)
	}
}

func TestUpdateStockEmitsEvent(t *testing.T) {
	router, stub, emitter := newBackend(t)
	defer emitter.Close()

	body := bytes.NewReader([]byte(`{"stock_quantity": 4}`))
	req := httptest.NewRequest(http.MethodPut, "/products/prod-002/stock", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	event := <-stub.events
	if event.ProductID != "prod-002" || event.CurrentStock != 4 {
		t.Fatalf("unexpected event %+v", event)
	}
}

func TestUpdateStockValidation(t *testing.T) {
	router, _, emitter := newBackend(t)
	defer emitter.Close()

	for _, body := range []string{`{}`, `{"stock_quantity": -1}`, `not json`} {
		req := httptest.NewRequest(http.MethodPut, "/products/prod-001/stock", bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for body %q, got %d", body, w.Code)
		}
	}
}

func TestSimulateSale(t *testing.T) {
	router, stub, emitter := newBackend(t)
	defer emitter.Close()

	req := httptest.NewRequest(http.MethodPost, "/products/prod-001/simulate-sale?quantity=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		RemainingStock int    `json:"remaining_stock"`
		BelowThreshold bool   `json:"below_threshold"`
		CorrelationID  string `json:"correlation_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode sale response: %v", err)
	}
	if body.RemainingStock != 3 || !body.BelowThreshold || body.CorrelationID == "" {
		t.Fatalf("unexpected sale response %+v", body)
	}

	event := <-stub.events
	if event.CorrelationID != body.CorrelationID {
		t.Fatalf("expected matching correlation id, got %q vs %q", event.CorrelationID, body.CorrelationID)
	}
}

func TestSimulateSaleErrors(t *testing.T) {
	router, _, emitter := newBackend(t)
	defer emitter.Close()

	req := httptest.NewRequest(http.MethodPost, "/products/prod-003/simulate-sale?quantity=100", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for insufficient stock, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/products/prod-001/simulate-sale?quantity=zero", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric quantity, got %d", w.Code)
	}
}

func TestBackendHealth(t *testing.T) {
	router, _, emitter := newBackend(t)
	defer emitter.Close()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
