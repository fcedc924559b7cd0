// Package worker drives the replenishment pipeline: it validates inbound
// inventory events, derives the order priority, places idempotent supplier
// orders and decides acknowledgment versus dead-lettering per message.
package worker

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/example/replenishment-service/internal/metrics"
	"github.com/example/replenishment-service/internal/models"
	"github.com/example/replenishment-service/internal/priority"
	"github.com/example/replenishment-service/internal/retry"
)

// Config contains the runtime settings the engine relies on to orchestrate
// processing and dead-letter handling.
type Config struct {
	MaxAttempts       int
	MsgMaxBytes       int
	WorkerConcurrency int
}

// Validator parses and validates inbound queue payloads. Schema violations
// must surface as *models.SchemaError so the engine can dead-letter without
// retrying.
type Validator interface {
	Validate(payload []byte) (*models.InventoryEvent, error)
}

// OrderPlacer resolves an order request to a result. The bool reports whether
// the result was served from the correlation tracker.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req models.SupplierOrderRequest) (*models.OrderResult, bool, error)
}

// DLQPublisher writes failed messages to the dead-letter sink.
type DLQPublisher interface {
	PublishDLQ(ctx context.Context, record models.DLQRecord) error
}

// Committer acknowledges records once they reach a terminal outcome.
type Committer interface {
	Commit(ctx context.Context, record *Record) error
}

// CommitFunc adapts a function to the Committer interface.
type CommitFunc func(ctx context.Context, record *Record) error

// Commit implements Committer.
func (f CommitFunc) Commit(ctx context.Context, record *Record) error {
	return f(ctx, record)
}

// Dependencies collects the runtime collaborators required by the engine.
type Dependencies struct {
	Validator    Validator
	Placer       OrderPlacer
	DLQPublisher DLQPublisher
	Committer    Committer
	Logger       zerolog.Logger
	Now          func() time.Time
}

// Engine processes queue records. Each record is handled by an independent
// unit of work bounded by a semaphore; the only state shared between units is
// the correlation tracker behind the OrderPlacer.
type Engine struct {
	cfg          Config
	validator    Validator
	placer       OrderPlacer
	dlqPublisher DLQPublisher
	committer    Committer
	logger       zerolog.Logger

	sem *semaphore.Weighted
	now func() time.Time
}

// NewEngine validates configuration and dependencies and constructs an Engine.
func NewEngine(cfg Config, deps Dependencies) (*Engine, error) {
	if cfg.MaxAttempts < 1 {
		return nil, errors.New("worker: max attempts must be >= 1")
	}
	if cfg.WorkerConcurrency < 1 {
		return nil, errors.New("worker: worker concurrency must be >= 1")
	}
	if cfg.MsgMaxBytes < 0 {
		return nil, errors.New("worker: msg max bytes cannot be negative")
	}
	if deps.Validator == nil {
		return nil, errors.New("worker: validator dependency is required")
	}
	if deps.Placer == nil {
		return nil, errors.New("worker: order placer dependency is required")
	}
	if deps.DLQPublisher == nil {
		return nil, errors.New("worker: dlq publisher dependency is required")
	}
	if deps.Committer == nil {
		return nil, errors.New("worker: committer dependency is required")
	}

	logger := deps.Logger
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	logger = logger.With().Str("component", "worker_engine").Logger()

	nowFunc := deps.Now
	if nowFunc == nil {
		nowFunc = time.Now
	}

	return &Engine{
		cfg:          cfg,
		validator:    deps.Validator,
		placer:       deps.Placer,
		dlqPublisher: deps.DLQPublisher,
		committer:    deps.Committer,
		logger:       logger,
		sem:          semaphore.NewWeighted(int64(cfg.WorkerConcurrency)),
		now:          nowFunc,
	}, nil
}

// HandleRecord validates the record synchronously and hands valid events to
// an asynchronous unit of work. Malformed messages are dead-lettered and
// acknowledged immediately; no outbound call is made for them.
func (e *Engine) HandleRecord(ctx context.Context, record *Record) {
	if record == nil {
		return
	}

	metrics.EventsConsumedTotal.Inc()

	if e.cfg.MsgMaxBytes > 0 && len(record.Value) > e.cfg.MsgMaxBytes {
		e.logger.Warn().
			Int("size", len(record.Value)).
			Int("limit", e.cfg.MsgMaxBytes).
			Msg("worker: record exceeds configured size limit")
		e.deadLetter(ctx, record, models.DLQRecord{
			OriginalPayload: string(record.Value),
			FailureType:     models.FailureTypeValidation,
			LastError:       "payload exceeds maximum size",
		})
		return
	}

	event, err := e.validator.Validate(record.Value)
	if err != nil {
		var schemaErr *models.SchemaError
		if !errors.As(err, &schemaErr) {
			e.logger.Error().Err(err).Msg("worker: validator returned unexpected error")
		}
		metrics.EventsInvalidTotal.Inc()
		e.logger.Warn().
			Err(err).
			Str("key", string(record.Key)).
			Msg("worker: inventory event failed validation")
		e.deadLetter(ctx, record, models.DLQRecord{
			OriginalPayload: string(record.Value),
			FailureType:     models.FailureTypeValidation,
			LastError:       err.Error(),
		})
		return
	}

	orderReq := models.SupplierOrderRequest{
		ProductID:     event.ProductID,
		ProductName:   event.ProductName,
		Quantity:      event.SuggestedOrderQuantity,
		SupplierID:    event.SupplierID,
		Priority:      priority.Derive(event.CurrentStock, event.Threshold),
		CorrelationID: event.CorrelationID,
	}

	if err := e.sem.Acquire(ctx, 1); err != nil {
		e.logger.Warn().
			Err(err).
			Str("correlation_id", event.CorrelationID).
			Msg("worker: shutdown before processing; leaving record for redelivery")
		return
	}

	go e.processEvent(ctx, record, event, orderReq)
}

func (e *Engine) processEvent(ctx context.Context, record *Record, event *models.InventoryEvent, orderReq models.SupplierOrderRequest) {
	defer e.sem.Release(1)

	start := e.now()
	defer func() {
		metrics.ProcessingDuration.Observe(e.now().Sub(start).Seconds())
	}()

	log := e.logger.With().
		Str("correlation_id", event.CorrelationID).
		Str("event_id", event.EventID).
		Str("product_id", event.ProductID).
		Str("priority", string(orderReq.Priority)).
		Logger()

	result, cached, err := e.placer.PlaceOrder(ctx, orderReq)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			log.Warn().Err(err).Msg("worker: shutdown during order placement; leaving record for redelivery")
			return
		}

		var exhausted *retry.RetriesExhaustedError
		switch {
		case errors.As(err, &exhausted):
			log.Error().
				Int("attempts", exhausted.Attempts).
				Err(exhausted.LastErr).
				Msg("worker: supplier order retries exhausted")
			e.deadLetter(ctx, record, models.DLQRecord{
				CorrelationID:   event.CorrelationID,
				EventID:         event.EventID,
				ProductID:       event.ProductID,
				OriginalPayload: string(record.Value),
				Attempts:        exhausted.Attempts,
				FailureType:     models.FailureTypeTransient,
				LastError:       exhausted.Error(),
			})
		case errors.Is(err, retry.ErrTerminal):
			log.Error().Err(err).Msg("worker: supplier order failed terminally")
			e.deadLetter(ctx, record, models.DLQRecord{
				CorrelationID:   event.CorrelationID,
				EventID:         event.EventID,
				ProductID:       event.ProductID,
				OriginalPayload: string(record.Value),
				Attempts:        1,
				FailureType:     models.FailureTypePermanent,
				LastError:       err.Error(),
			})
		default:
			log.Error().Err(err).Msg("worker: supplier order failed with unclassified error")
			e.deadLetter(ctx, record, models.DLQRecord{
				CorrelationID:   event.CorrelationID,
				EventID:         event.EventID,
				ProductID:       event.ProductID,
				OriginalPayload: string(record.Value),
				Attempts:        1,
				FailureType:     models.FailureTypeUnknown,
				LastError:       err.Error(),
			})
		}
		return
	}

	if !result.Confirmed() {
		log.Error().
			Str("order_id", result.OrderID).
			Str("status", result.Status).
			Msg("worker: supplier rejected order")
		e.deadLetter(ctx, record, models.DLQRecord{
			CorrelationID:   event.CorrelationID,
			EventID:         event.EventID,
			ProductID:       event.ProductID,
			OriginalPayload: string(record.Value),
			Attempts:        1,
			FailureType:     models.FailureTypePermanent,
			LastError:       "supplier returned status " + result.Status,
		})
		return
	}

	if !cached {
		metrics.OrdersConfirmedTotal.Inc()
	}

	log.Info().
		Str("order_id", result.OrderID).
		Bool("from_tracker", cached).
		Msg("worker: inventory event processed")
	e.commitRecord(ctx, record)
}

func (e *Engine) deadLetter(ctx context.Context, record *Record, dlq models.DLQRecord) {
	now := models.NewUTCTime(e.now())
	if dlq.FirstFailedAt.IsZero() {
		dlq.FirstFailedAt = now
	}
	if dlq.LastAttemptAt.IsZero() {
		dlq.LastAttemptAt = now
	}

	metrics.DeadLetterTotal.WithLabelValues(dlq.FailureType).Inc()

	if err := e.dlqPublisher.PublishDLQ(ctx, dlq); err != nil {
		e.logger.Error().
			Err(err).
			Str("correlation_id", dlq.CorrelationID).
			Msg("worker: failed to publish dead-letter record")
	}
	e.commitRecord(ctx, record)
}

func (e *Engine) commitRecord(ctx context.Context, record *Record) {
	if err := e.committer.Commit(ctx, record); err != nil {
		e.logger.Error().
			Err(err).
			Str("topic", record.Topic).
			Int32("partition", record.Partition).
			Int64("offset", record.Offset).
			Msg("worker: failed to commit record offset")
	}
}
