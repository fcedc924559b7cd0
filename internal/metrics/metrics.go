// Package metrics defines the Prometheus instruments shared by the
// replenishment pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	EventsConsumedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_events_consumed_total",
			Help: "Total number of inventory events pulled from the queue",
		},
	)

	EventsInvalidTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_events_invalid_total",
			Help: "Total number of inventory events rejected by schema validation",
		},
	)

	EventsEmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_events_emitted_total",
			Help: "Total number of inventory events published by the backend",
		},
	)

	EventEmitFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_event_emit_failures_total",
			Help: "Total number of inventory events that could not be published",
		},
	)

	OrdersConfirmedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "supplier_orders_confirmed_total",
			Help: "Total number of supplier orders confirmed",
		},
	)

	DuplicatesSuppressedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "supplier_orders_duplicates_suppressed_total",
			Help: "Total number of redeliveries answered from the correlation tracker",
		},
	)

	SupplierAttemptsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "supplier_order_attempts_total",
			Help: "Total number of outbound supplier order attempts",
		},
	)

	DeadLetterTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_events_dead_letter_total",
			Help: "Total number of inventory events routed to the dead-letter sink",
		},
		[]string{"failure_type"},
	)

	ProcessingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inventory_event_processing_duration_seconds",
			Help:    "Duration of inventory event processing from dequeue to terminal outcome",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Register registers every pipeline metric with the default registry.
func Register() {
	prometheus.MustRegister(EventsConsumedTotal)
	prometheus.MustRegister(EventsInvalidTotal)
	prometheus.MustRegister(EventsEmittedTotal)
	prometheus.MustRegister(EventEmitFailuresTotal)
	prometheus.MustRegister(OrdersConfirmedTotal)
	prometheus.MustRegister(DuplicatesSuppressedTotal)
	prometheus.MustRegister(SupplierAttemptsTotal)
	prometheus.MustRegister(DeadLetterTotal)
	prometheus.MustRegister(ProcessingDuration)
}
