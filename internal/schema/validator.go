// Package schema parses and validates inbound inventory-event payloads.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/rs/zerolog"

	"github.com/example/replenishment-service/internal/models"
	"github.com/example/replenishment-service/internal/util"
)

// wireEvent mirrors the queue payload with pointer fields so missing keys can
// be distinguished from zero values. Unknown extra fields are ignored.
type wireEvent struct {
	EventID                *string `json:"event_id"`
	CorrelationID          *string `json:"correlation_id"`
	EventType              *string `json:"event_type"`
	Timestamp              *string `json:"timestamp"`
	ProductID              *string `json:"product_id"`
	ProductName            *string `json:"product_name"`
	CurrentStock           *int    `json:"current_stock"`
	Threshold              *int    `json:"threshold"`
	SupplierID             *string `json:"supplier_id"`
	SuggestedOrderQuantity *int    `json:"suggested_order_quantity"`
}

// Validator turns raw queue payloads into validated InventoryEvents. Every
// violation is reported through a *models.SchemaError naming the offending
// fields; the consumer treats those as terminal.
type Validator struct {
	logger zerolog.Logger
}

// New constructs a Validator.
func New(logger zerolog.Logger) *Validator {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &Validator{logger: logger}
}

// Validate parses the payload and checks every field for presence, type and
// range conformance.
func (v *Validator) Validate(payload []byte) (*models.InventoryEvent, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, &models.SchemaError{Fields: []string{"payload"}}
	}

	var wire wireEvent
	if err := json.Unmarshal(payload, &wire); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return nil, &models.SchemaError{Fields: []string{typeErr.Field}}
		}
		v.logger.Debug().Err(err).Msg("schema: payload is not a json object")
		return nil, &models.SchemaError{Fields: []string{"payload"}}
	}

	var violations []string
	event := models.InventoryEvent{}

	if id, ok := requireString(wire.EventID); !ok {
		violations = append(violations, "event_id")
	} else if _, err := util.ParseUUID(id); err != nil {
		violations = append(violations, "event_id")
	} else {
		event.EventID = id
	}

	if id, ok := requireString(wire.CorrelationID); !ok {
		violations = append(violations, "correlation_id")
	} else if _, err := util.ParseUUID(id); err != nil {
		violations = append(violations, "correlation_id")
	} else {
		event.CorrelationID = id
	}

	if typ, ok := requireString(wire.EventType); !ok || typ != models.EventTypeStockBelowThreshold {
		violations = append(violations, "event_type")
	} else {
		event.EventType = typ
	}

	if raw, ok := requireString(wire.Timestamp); !ok {
		violations = append(violations, "timestamp")
	} else if ts, err := models.ParseUTCTime(raw); err != nil {
		violations = append(violations, "timestamp")
	} else {
		event.Timestamp = ts
	}

	if id, ok := requireString(wire.ProductID); !ok {
		violations = append(violations, "product_id")
	} else {
		event.ProductID = id
	}

	if name, ok := requireString(wire.ProductName); !ok {
		violations = append(violations, "product_name")
	} else {
		event.ProductName = name
	}

	if wire.CurrentStock == nil || *wire.CurrentStock < 0 {
		violations = append(violations, "current_stock")
	} else {
		event.CurrentStock = *wire.CurrentStock
	}

	if wire.Threshold == nil || *wire.Threshold < 0 {
		violations = append(violations, "threshold")
	} else {
		event.Threshold = *wire.Threshold
	}

	if id, ok := requireString(wire.SupplierID); !ok {
		violations = append(violations, "supplier_id")
	} else {
		event.SupplierID = id
	}

	switch {
	case wire.SuggestedOrderQuantity == nil || *wire.SuggestedOrderQuantity < 1:
		violations = append(violations, "suggested_order_quantity")
	case wire.Threshold != nil && *wire.Threshold >= 0 && *wire.SuggestedOrderQuantity < *wire.Threshold:
		violations = append(violations, "suggested_order_quantity")
	default:
		event.SuggestedOrderQuantity = *wire.SuggestedOrderQuantity
	}

	if len(violations) > 0 {
		return nil, &models.SchemaError{Fields: violations}
	}

	return &event, nil
}

func requireString(value *string) (string, bool) {
	if value == nil {
		return "", false
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}
