// Package inventory implements the producer side of the replenishment
// pipeline: product stock mutation and below-threshold event emission.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/replenishment-service/internal/models"
	"github.com/example/replenishment-service/internal/store"
)

// SaleResult summarises a simulated sale for the HTTP response.
type SaleResult struct {
	ProductID      string `json:"product_id"`
	QuantitySold   int    `json:"quantity_sold"`
	RemainingStock int    `json:"remaining_stock"`
	BelowThreshold bool   `json:"below_threshold"`
	CorrelationID  string `json:"correlation_id"`
}

// Service mutates product stock and emits an InventoryEvent whenever the
// resulting stock sits below the replenishment threshold. Emission is
// asynchronous; callers do not wait for supplier confirmation.
type Service struct {
	repo      store.ProductRepository
	emitter   *Emitter
	threshold int
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService constructs a Service.
func NewService(repo store.ProductRepository, emitter *Emitter, threshold int, logger zerolog.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("inventory service: product repository is required")
	}
	if emitter == nil {
		return nil, errors.New("inventory service: emitter is required")
	}
	if threshold < 0 {
		return nil, fmt.Errorf("inventory service: threshold cannot be negative: %d", threshold)
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	return &Service{
		repo:      repo,
		emitter:   emitter,
		threshold: threshold,
		logger:    logger.With().Str("component", "inventory_service").Logger(),
		now:       time.Now,
	}, nil
}

// List returns every product.
func (s *Service) List(ctx context.Context) ([]models.Product, error) {
	return s.repo.List(ctx)
}

// Get returns a single product.
func (s *Service) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.Get(ctx, id)
}

// UpdateStock replaces a product's stock quantity. When the new quantity
// falls below the threshold an inventory event is submitted for emission.
// The correlation id of the submitted event is returned (empty when no event
// was due).
func (s *Service) UpdateStock(ctx context.Context, id string, quantity int) (*models.Product, string, error) {
	product, err := s.repo.SetStock(ctx, id, quantity)
	if err != nil {
		return nil, "", err
	}

	var correlationID string
	if product.StockQuantity < s.threshold {
		correlationID = uuid.NewString()
		s.submitEvent(*product, correlationID)
	}

	return product, correlationID, nil
}

// SimulateSale deducts stock for a sale, emitting an inventory event when the
// remaining stock drops below the threshold.
func (s *Service) SimulateSale(ctx context.Context, id string, quantity int) (*SaleResult, error) {
	product, err := s.repo.DeductStock(ctx, id, quantity)
	if err != nil {
		return nil, err
	}

	result := &SaleResult{
		ProductID:      id,
		QuantitySold:   quantity,
		RemainingStock: product.StockQuantity,
		BelowThreshold: product.StockQuantity < s.threshold,
	}

	if result.BelowThreshold {
		result.CorrelationID = uuid.NewString()
		s.submitEvent(*product, result.CorrelationID)
	}

	return result, nil
}

// Threshold exposes the configured replenishment threshold.
func (s *Service) Threshold() int {
	return s.threshold
}

func (s *Service) submitEvent(product models.Product, correlationID string) {
	event := s.buildEvent(product, correlationID)
	if err := s.emitter.Submit(event); err != nil {
		s.logger.Error().
			Err(err).
			Str("correlation_id", correlationID).
			Str("product_id", product.ID).
			Msg("inventory event submission rejected")
	}
}

// buildEvent constructs the immutable event for a product that crossed below
// the threshold. The suggested quantity restocks to twice the threshold but
// never orders less than one threshold's worth.
func (s *Service) buildEvent(product models.Product, correlationID string) models.InventoryEvent {
	suggested := s.threshold*2 - product.StockQuantity
	if suggested < s.threshold {
		suggested = s.threshold
	}

	return models.InventoryEvent{
		EventID:                uuid.NewString(),
		CorrelationID:          correlationID,
		EventType:              models.EventTypeStockBelowThreshold,
		Timestamp:              models.NewUTCTime(s.now()),
		ProductID:              product.ID,
		ProductName:            product.Name,
		CurrentStock:           product.StockQuantity,
		Threshold:              s.threshold,
		SupplierID:             product.SupplierID,
		SuggestedOrderQuantity: suggested,
	}
}
