// Package store provides the injected repository abstractions the services
// depend on instead of global mutable maps.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/example/replenishment-service/internal/models"
)

var (
	// ErrNotFound is returned when a product id has no entry.
	ErrNotFound = errors.New("product not found")
	// ErrInsufficientStock is returned when a sale exceeds available stock.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductRepository is the key-value product store the backend mutates.
type ProductRepository interface {
	List(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	SetStock(ctx context.Context, id string, quantity int) (*models.Product, error)
	DeductStock(ctx context.Context, id string, quantity int) (*models.Product, error)
}

// MemoryProducts is a mutex-guarded in-memory ProductRepository.
type MemoryProducts struct {
	mu       sync.RWMutex
	products map[string]models.Product
}

// NewMemoryProducts seeds a repository with the supplied products.
func NewMemoryProducts(seed []models.Product) *MemoryProducts {
	products := make(map[string]models.Product, len(seed))
	for _, p := range seed {
		products[p.ID] = p
	}
	return &MemoryProducts{products: products}
}

// DemoProducts returns the demonstration catalog the backend ships with.
func DemoProducts() []models.Product {
	return []models.Product{
		{ID: "prod-001", Name: "Wireless Headphones", StockQuantity: 5, Price: 99.99, SupplierID: "supp-001"},
		{ID: "prod-002", Name: "Bluetooth Speaker", StockQuantity: 15, Price: 49.99, SupplierID: "supp-002"},
		{ID: "prod-003", Name: "USB-C Cable", StockQuantity: 3, Price: 12.99, SupplierID: "supp-001"},
	}
}

// List returns every product sorted by id.
func (m *MemoryProducts) List(_ context.Context) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get returns a copy of the product with the given id.
func (m *MemoryProducts) Get(_ context.Context, id string) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// SetStock replaces the stock quantity of a product.
func (m *MemoryProducts) SetStock(_ context.Context, id string, quantity int) (*models.Product, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("stock quantity cannot be negative: %d", quantity)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.StockQuantity = quantity
	m.products[id] = p
	return &p, nil
}

// DeductStock reduces stock by quantity, failing if not enough remains.
func (m *MemoryProducts) DeductStock(_ context.Context, id string, quantity int) (*models.Product, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("sale quantity must be positive: %d", quantity)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.StockQuantity < quantity {
		return nil, ErrInsufficientStock
	}
	p.StockQuantity -= quantity
	m.products[id] = p
	return &p, nil
}
