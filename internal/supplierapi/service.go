// Package supplierapi simulates the supplier side of the order contract:
// pricing, confirmation and an in-memory order history.
package supplierapi

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/replenishment-service/internal/models"
	"github.com/example/replenishment-service/internal/store"
)

// ErrOrderNotFound is returned when an order id has no history entry.
var ErrOrderNotFound = errors.New("order not found")

// Priority adjustments applied to the base catalog price and lead time.
const (
	urgentCostFactor = 1.2
	lowCostFactor    = 0.95
	lowExtraDays     = 2
)

// OrderRecord pairs an order request with the result it produced.
type OrderRecord struct {
	Request   models.SupplierOrderRequest `json:"request"`
	Response  models.OrderResult          `json:"response"`
	Timestamp models.UTCTime              `json:"timestamp"`
}

// Service prices and confirms supplier orders.
type Service struct {
	catalog    store.CatalogRepository
	supplierID string
	logger     zerolog.Logger
	now        func() time.Time

	mu      sync.RWMutex
	history map[string]OrderRecord
	order   []string
}

// NewService constructs a Service.
func NewService(catalog store.CatalogRepository, supplierID string, logger zerolog.Logger) (*Service, error) {
	if catalog == nil {
		return nil, errors.New("supplier api: catalog repository is required")
	}
	if supplierID == "" {
		return nil, errors.New("supplier api: supplier id is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	return &Service{
		catalog:    catalog,
		supplierID: supplierID,
		logger:     logger.With().Str("component", "supplier_service").Logger(),
		now:        time.Now,
		history:    make(map[string]OrderRecord),
	}, nil
}

// ProcessOrder prices the order, confirms it and appends it to the history.
// The correlation id is taken from the header value when present, then the
// body, and generated as a last resort.
func (s *Service) ProcessOrder(ctx context.Context, order models.SupplierOrderRequest, headerCorrelationID string) (*models.OrderResult, error) {
	correlationID := strings.TrimSpace(headerCorrelationID)
	if correlationID == "" {
		correlationID = order.CorrelationID
	}
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	entry, err := s.catalog.Entry(ctx, order.ProductID)
	if err != nil {
		return nil, fmt.Errorf("supplier api: catalog lookup: %w", err)
	}

	totalCost := entry.UnitCost * float64(order.Quantity)
	deliveryDays := entry.DeliveryDays

	switch order.Priority {
	case models.PriorityUrgent:
		if deliveryDays > 1 {
			deliveryDays--
		}
		totalCost *= urgentCostFactor
	case models.PriorityLow:
		deliveryDays += lowExtraDays
		totalCost *= lowCostFactor
	}

	now := s.now().UTC()
	result := models.OrderResult{
		OrderID:               fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), shortID(8)),
		Status:                models.OrderStatusConfirmed,
		EstimatedDeliveryDays: deliveryDays,
		TotalCost:             roundCents(totalCost),
		ConfirmationNumber:    fmt.Sprintf("CONF-%s", shortID(12)),
		CorrelationID:         correlationID,
		ProcessedAt:           models.NewUTCTime(now),
		SupplierID:            s.supplierID,
	}

	s.mu.Lock()
	s.history[result.OrderID] = OrderRecord{
		Request:   order,
		Response:  result,
		Timestamp: models.NewUTCTime(now),
	}
	s.order = append(s.order, result.OrderID)
	s.mu.Unlock()

	s.logger.Info().
		Str("order_id", result.OrderID).
		Str("correlation_id", correlationID).
		Str("product_id", order.ProductID).
		Int("quantity", order.Quantity).
		Str("priority", string(order.Priority)).
		Msg("order processed")

	return &result, nil
}

// Order returns the history entry for an order id.
func (s *Service) Order(orderID string) (*OrderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.history[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &record, nil
}

// Recent returns up to limit of the most recent orders, oldest first, along
// with the total order count.
func (s *Service) Recent(limit int) ([]OrderRecord, int) {
	if limit < 1 {
		limit = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.order) - limit
	if start < 0 {
		start = 0
	}

	out := make([]OrderRecord, 0, len(s.order)-start)
	for _, id := range s.order[start:] {
		out = append(out, s.history[id])
	}
	return out, len(s.order)
}

// Catalog exposes the full supplier catalog.
func (s *Service) Catalog(ctx context.Context) (map[string]store.CatalogEntry, error) {
	return s.catalog.All(ctx)
}

// SupplierID returns the configured supplier identity.
func (s *Service) SupplierID() string {
	return s.supplierID
}

func shortID(n int) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	if n > len(id) {
		n = len(id)
	}
	return id[:n]
}

func roundCents(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
