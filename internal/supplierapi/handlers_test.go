package supplierapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/example/replenishment-service/internal/models"
	"github.com/example/replenishment-service/internal/store"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, err := NewService(store.DemoCatalog(), "ACME-SUPPLIER-001", zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return NewRouter(svc), svc
}

func postOrder(t *testing.T, router *gin.Engine, body any, correlationID string) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/order", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if correlationID != "" {
		req.Header.Set("X-Correlation-ID", correlationID)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestOrderEndpointConfirms(t *testing.T) {
	router, _ := newTestRouter(t)

	w := postOrder(t, router, models.SupplierOrderRequest{
		ProductID: "prod-001",
		Quantity:  10,
		Priority:  models.PriorityUrgent,
	}, "corr-abc")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result models.OrderResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !result.Confirmed() {
		t.Fatalf("expected confirmed order, got %q", result.Status)
	}
	if result.CorrelationID != "corr-abc" {
		t.Fatalf("expected header correlation id echoed, got %q", result.CorrelationID)
	}
}

func TestOrderEndpointDefaultsPriority(t *testing.T) {
	router, svc := newTestRouter(t)

	w := postOrder(t, router, map[string]any{
		"product_id": "prod-002",
		"quantity":   3,
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	recent, total := svc.Recent(1)
	if total != 1 {
		t.Fatalf("expected 1 recorded order, got %d", total)
	}
	if recent[0].Request.Priority != models.PriorityNormal {
		t.Fatalf("expected defaulted normal priority, got %q", recent[0].Request.Priority)
	}
}

func TestOrderEndpointValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	w := postOrder(t, router, map[string]any{"quantity": 3}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing product_id, got %d", w.Code)
	}

	w = postOrder(t, router, map[string]any{"product_id": "prod-001", "quantity": 0}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-positive quantity, got %d", w.Code)
	}

	w = postOrder(t, router, map[string]any{"product_id": "prod-001", "quantity": 1, "priority": "immediately"}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported priority, got %d", w.Code)
	}
}

func TestOrderLookupEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	w := postOrder(t, router, models.SupplierOrderRequest{ProductID: "prod-001", Quantity: 2}, "")
	var result models.OrderResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/orders/"+result.OrderID, nil)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200 for known order, got %d", w2.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/orders/ORD-MISSING", nil)
	w3 := httptest.NewRecorder()
	router.ServeHTTP(w3, req)
	if w3.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown order, got %d", w3.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/orders?limit=5", nil)
	w4 := httptest.NewRecorder()
	router.ServeHTTP(w4, req)
	if w4.Code != http.StatusOK {
		t.Fatalf("expected 200 listing orders, got %d", w4.Code)
	}

	var listing struct {
		Orders     []OrderRecord `json:"orders"`
		TotalCount int           `json:"total_count"`
	}
	if err := json.Unmarshal(w4.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if listing.TotalCount != 1 || len(listing.Orders) != 1 {
		t.Fatalf("unexpected listing %+v", listing)
	}
}

func TestCatalogEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/catalog", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		SupplierID string                        `json:"supplier_id"`
		Catalog    map[string]store.CatalogEntry `json:"catalog"`
		Currency   string                        `json:"currency"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if body.SupplierID != "ACME-SUPPLIER-001" {
		t.Fatalf("unexpected supplier id %q", body.SupplierID)
	}
	if _, ok := body.Catalog["prod-001"]; !ok {
		t.Fatalf("expected prod-001 in catalog")
	}
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
