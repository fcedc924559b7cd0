package models

// Failure types for dead-letter records.
const (
	FailureTypePermanent  = "permanent"
	FailureTypeTransient  = "transient"
	FailureTypeValidation = "validation"
	FailureTypeUnknown    = "unknown"
)

// DLQRecord captures everything needed to diagnose a message that could not be
// processed: the original payload, how often it was attempted and why it
// ultimately failed. Keyed by correlation id for traceability. The payload is
// carried as an opaque string because rejected messages are often not valid
// JSON themselves.
type DLQRecord struct {
	CorrelationID   string `json:"correlation_id,omitempty"`
	EventID         string `json:"event_id,omitempty"`
	ProductID       string `json:"product_id,omitempty"`
	OriginalPayload string `json:"original_payload,omitempty"`
	Attempts        int             `json:"attempts"`
	FailureType     string          `json:"failure_type"`
	LastError       string          `json:"last_error,omitempty"`
	FirstFailedAt   UTCTime         `json:"first_failed_at"`
	LastAttemptAt   UTCTime         `json:"last_attempt_at"`
}
