package inventory

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"github.com/rs/zerolog"

	"github.com/example/replenishment-service/internal/metrics"
	"github.com/example/replenishment-service/internal/models"
)

// ErrQueueFull is returned when the emission queue has no capacity left.
// Callers surface it instead of silently dropping the event.
var ErrQueueFull = errors.New("inventory emitter: queue is full")

// EventPublisher enqueues inventory events on the durable queue.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event models.InventoryEvent) error
}

// Emitter decouples HTTP request handling from queue publishing through a
// bounded work queue. Unlike a detached fire-and-forget goroutine, submission
// can fail visibly and every publish outcome is logged and counted.
type Emitter struct {
	publisher EventPublisher
	logger    zerolog.Logger

	jobs chan models.InventoryEvent

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
	workers   int
}

// NewEmitter constructs an Emitter with the given queue capacity and worker
// count.
func NewEmitter(publisher EventPublisher, queueSize, workers int, logger zerolog.Logger) (*Emitter, error) {
	if publisher == nil {
		return nil, errors.New("inventory emitter: publisher is required")
	}
	if queueSize < 1 {
		return nil, errors.New("inventory emitter: queue size must be >= 1")
	}
	if workers < 1 {
		return nil, errors.New("inventory emitter: workers must be >= 1")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	return &Emitter{
		publisher: publisher,
		logger:    logger.With().Str("component", "inventory_emitter").Logger(),
		jobs:      make(chan models.InventoryEvent, queueSize),
		workers:   workers,
	}, nil
}

// Start launches the worker goroutines. The context bounds their lifetime.
func (e *Emitter) Start(ctx context.Context) {
	e.startOnce.Do(func() {
		for i := 0; i < e.workers; i++ {
			e.wg.Add(1)
			go e.run(ctx)
		}
	})
}

// Submit places the event on the work queue without blocking the caller.
func (e *Emitter) Submit(event models.InventoryEvent) error {
	select {
	case e.jobs <- event:
		return nil
	default:
		metrics.EventEmitFailuresTotal.Inc()
		e.logger.Error().
			Str("correlation_id", event.CorrelationID).
			Str("product_id", event.ProductID).
			Msg("inventory event dropped: emission queue full")
		return ErrQueueFull
	}
}

// Close stops accepting work and waits for in-flight publishes to finish.
func (e *Emitter) Close() {
	e.stopOnce.Do(func() {
		close(e.jobs)
	})
	e.wg.Wait()
}

func (e *Emitter) run(ctx context.Context) {
	defer e.wg.Done()

	for event := range e.jobs {
		if err := e.publisher.PublishEvent(ctx, event); err != nil {
			metrics.EventEmitFailuresTotal.Inc()
			e.logger.Error().
				Err(err).
				Str("correlation_id", event.CorrelationID).
				Str("product_id", event.ProductID).
				Msg("failed to publish inventory event")
			continue
		}
		metrics.EventsEmittedTotal.Inc()
		e.logger.Info().
			Str("correlation_id", event.CorrelationID).
			Str("product_id", event.ProductID).
			Int("current_stock", event.CurrentStock).
			Msg("inventory event emitted")
	}
}
