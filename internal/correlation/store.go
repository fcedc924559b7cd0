// Package correlation tracks the terminal outcome of each logical business
// event so redelivered queue messages can be answered without issuing a
// second supplier order.
package correlation

import (
	"context"

	"github.com/example/replenishment-service/internal/models"
)

// Store maps correlation ids to recorded order results. Implementations must
// support concurrent readers and exclusive writes; multiple units of work may
// consult the store at once. Callers record confirmed orders only; failures
// stay unrecorded so a redelivery can try again.
type Store interface {
	Record(ctx context.Context, correlationID string, result models.OrderResult) error
	Lookup(ctx context.Context, correlationID string) (*models.OrderResult, bool, error)
}
