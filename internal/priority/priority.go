// Package priority maps observed stock levels to supplier order priorities.
package priority

import "github.com/example/replenishment-service/internal/models"

// Derive returns the order priority for the given stock level and threshold.
// Stock at or below half the threshold (floor division) is urgent. A zero
// threshold has no meaningful half, so only fully depleted stock is urgent.
func Derive(currentStock, threshold int) models.Priority {
	if threshold == 0 {
		if currentStock == 0 {
			return models.PriorityUrgent
		}
		return models.PriorityNormal
	}
	if currentStock <= threshold/2 {
		return models.PriorityUrgent
	}
	return models.PriorityNormal
}
