package models

// Product is a catalog entry tracked by the backend's product repository.
type Product struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	StockQuantity int     `json:"stock_quantity"`
	Price         float64 `json:"price"`
	SupplierID    string  `json:"supplier_id"`
}
