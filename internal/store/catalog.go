package store

import (
	"context"
	"sync"
)

// CatalogEntry describes supplier-side pricing and lead time for a product.
type CatalogEntry struct {
	Name         string  `json:"name"`
	UnitCost     float64 `json:"unit_cost"`
	DeliveryDays int     `json:"delivery_days"`
}

// CatalogRepository resolves pricing information for ordered products.
// Unknown products resolve to the default entry so every order can be priced.
type CatalogRepository interface {
	Entry(ctx context.Context, productID string) (CatalogEntry, error)
	All(ctx context.Context) (map[string]CatalogEntry, error)
}

const defaultCatalogKey = "default"

// MemoryCatalog is an in-memory CatalogRepository.
type MemoryCatalog struct {
	mu      sync.RWMutex
	entries map[string]CatalogEntry
}

// NewMemoryCatalog builds a catalog from the supplied entries. The map must
// contain a "default" entry used as the fallback.
func NewMemoryCatalog(entries map[string]CatalogEntry) *MemoryCatalog {
	copied := make(map[string]CatalogEntry, len(entries))
	for k, v := range entries {
		copied[k] = v
	}
	if _, ok := copied[defaultCatalogKey]; !ok {
		copied[defaultCatalogKey] = CatalogEntry{Name: "Generic Product", UnitCost: 10.00, DeliveryDays: 5}
	}
	return &MemoryCatalog{entries: copied}
}

// DemoCatalog returns the simulated supplier catalog.
func DemoCatalog() *MemoryCatalog {
	return NewMemoryCatalog(map[string]CatalogEntry{
		"prod-001":        {Name: "Wireless Headphones", UnitCost: 45.00, DeliveryDays: 3},
		"prod-002":        {Name: "Bluetooth Speaker", UnitCost: 25.00, DeliveryDays: 2},
		"prod-003":        {Name: "USB-C Cable", UnitCost: 5.00, DeliveryDays: 1},
		defaultCatalogKey: {Name: "Generic Product", UnitCost: 10.00, DeliveryDays: 5},
	})
}

// Entry returns the catalog entry for the product, or the default fallback.
func (c *MemoryCatalog) Entry(_ context.Context, productID string) (CatalogEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if entry, ok := c.entries[productID]; ok {
		return entry, nil
	}
	return c.entries[defaultCatalogKey], nil
}

// All returns a copy of the full catalog.
func (c *MemoryCatalog) All(_ context.Context) (map[string]CatalogEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]CatalogEntry, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out, nil
}
