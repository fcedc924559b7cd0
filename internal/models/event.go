package models

// EventTypeStockBelowThreshold is the only event type the replenishment
// pipeline currently recognises.
const EventTypeStockBelowThreshold = "stock_below_threshold"

// InventoryEvent is the message the backend enqueues when a product's stock
// crosses below its threshold. The shape matches the queue wire contract;
// unknown extra fields on inbound payloads are ignored.
type InventoryEvent struct {
	EventID                string  `json:"event_id"`
	CorrelationID          string  `json:"correlation_id"`
	EventType              string  `json:"event_type"`
	Timestamp              UTCTime `json:"timestamp"`
	ProductID              string  `json:"product_id"`
	ProductName            string  `json:"product_name"`
	CurrentStock           int     `json:"current_stock"`
	Threshold              int     `json:"threshold"`
	SupplierID             string  `json:"supplier_id"`
	SuggestedOrderQuantity int     `json:"suggested_order_quantity"`
}
