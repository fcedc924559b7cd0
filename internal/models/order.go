package models

// Priority ranks a supplier order relative to how far stock has fallen.
type Priority string

// Supported order priorities.
const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether the priority is one of the supported tiers.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityUrgent:
		return true
	default:
		return false
	}
}

// Order status values returned by the supplier.
const (
	OrderStatusConfirmed = "confirmed"
	OrderStatusFailed    = "failed"
)

// SupplierOrderRequest is the outbound order payload, derived deterministically
// from an InventoryEvent plus the priority policy. It lives only for the
// duration of one processing attempt.
type SupplierOrderRequest struct {
	ProductID     string   `json:"product_id"`
	ProductName   string   `json:"product_name"`
	Quantity      int      `json:"quantity"`
	SupplierID    string   `json:"supplier_id"`
	Priority      Priority `json:"priority"`
	CorrelationID string   `json:"correlation_id"`
}

// OrderResult is the supplier's structured answer to an order request. Results
// for confirmed orders are retained keyed by correlation id so redeliveries of
// the same event can be answered without a second outbound call.
type OrderResult struct {
	OrderID               string  `json:"order_id"`
	Status                string  `json:"status"`
	EstimatedDeliveryDays int     `json:"estimated_delivery_days"`
	TotalCost             float64 `json:"total_cost"`
	ConfirmationNumber    string  `json:"confirmation_number"`
	CorrelationID         string  `json:"correlation_id"`
	ProcessedAt           UTCTime `json:"processed_at"`
	SupplierID            string  `json:"supplier_id"`
}

// Confirmed reports whether the supplier accepted the order.
func (r OrderResult) Confirmed() bool {
	return r.Status == OrderStatusConfirmed
}
