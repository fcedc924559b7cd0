package worker

import (
	"context"
	"errors"
	"time"

	"github.com/example/replenishment-service/internal/queue"
)

// Record represents a queue message delivered to the worker. It is a minimal
// abstraction that keeps the engine decoupled from the concrete consumer
// implementation while still exposing the data the engine requires.
type Record struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
	Headers   map[string][]byte

	commitFn func(ctx context.Context) error
}

// Commit acknowledges the underlying queue message. Records without a bound
// commit function (as constructed directly in tests) report an error.
func (r *Record) Commit(ctx context.Context) error {
	if r == nil || r.commitFn == nil {
		return errors.New("worker: record has no commit binding")
	}
	return r.commitFn(ctx)
}

// NewRecordFromQueue constructs a worker record from a queue consumer record
// and binds the provided commit function, which acknowledges the underlying
// offset once the engine reaches a terminal outcome.
func NewRecordFromQueue(rec *queue.Record, commit func(ctx context.Context) error) *Record {
	if rec == nil {
		return nil
	}

	return &Record{
		Topic:     rec.Topic,
		Partition: rec.Partition,
		Offset:    rec.Offset,
		Key:       cloneBytes(rec.Key),
		Value:     cloneBytes(rec.Value),
		Timestamp: rec.Timestamp,
		Headers:   cloneHeaders(rec.Headers),
		commitFn:  commit,
	}
}

// QueueHandler returns a queue.Handler that adapts consumer records and
// delegates processing to the engine.
func QueueHandler(engine *Engine, cons *queue.Consumer) queue.Handler {
	return func(ctx context.Context, rec *queue.Record) error {
		if engine == nil || rec == nil {
			return nil
		}

		commitFn := func(context.Context) error { return nil }
		if cons != nil {
			commitFn = func(c context.Context) error {
				return cons.Commit(c, rec)
			}
		}

		engine.HandleRecord(ctx, NewRecordFromQueue(rec, commitFn))
		return nil
	}
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	clone := make([]byte, len(b))
	copy(clone, b)
	return clone
}

func cloneHeaders(headers map[string][]byte) map[string][]byte {
	if len(headers) == 0 {
		return nil
	}
	clone := make(map[string][]byte, len(headers))
	for k, v := range headers {
		clone[k] = cloneBytes(v)
	}
	return clone
}
