// Package queue wraps the Kafka transport behind the small surface the
// replenishment services need: an at-least-once consumer with manual
// acknowledgment and an acknowledged sync producer.
package queue

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
)

const (
	consumerClientID       = "replenishment-consumer"
	defaultSessionTimeout  = 30 * time.Second
	defaultHeartbeat       = 3 * time.Second
	defaultConsumeBackoff  = time.Second
	defaultRebalanceWindow = 30 * time.Second
)

// Handler is invoked for every record delivered by the consumer.
type Handler func(ctx context.Context, record *Record) error

// Record represents a queue message delivered by the consumer. Committing a
// record acknowledges it; uncommitted records are redelivered.
type Record struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
	Headers   map[string][]byte

	session sarama.ConsumerGroupSession
	message *sarama.ConsumerMessage

	mu        sync.Mutex
	committed bool
}

// Consumer wraps a Sarama consumer group with manual commit support. With
// commitOnAck enabled, offsets are flushed only after a record is explicitly
// acknowledged, which is what gives the pipeline at-least-once semantics.
type Consumer struct {
	logger zerolog.Logger

	group       sarama.ConsumerGroup
	groupID     string
	handler     Handler
	commitOnAck bool

	ready atomic.Bool

	mu     sync.RWMutex
	cancel context.CancelFunc
}

// NewConsumer constructs a consumer for the supplied brokers and group.
func NewConsumer(brokers []string, groupID string, logger zerolog.Logger, commitOnAck bool) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("queue consumer: at least one broker is required")
	}
	if groupID == "" {
		return nil, errors.New("queue consumer: group id is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.ClientID = consumerClientID
	cfg.Consumer.Group.Session.Timeout = defaultSessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = defaultHeartbeat
	cfg.Consumer.Group.Rebalance.Timeout = defaultRebalanceWindow
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Offsets.AutoCommit.Enable = !commitOnAck
	cfg.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("queue consumer: create consumer group: %w", err)
	}

	c := &Consumer{
		logger:      logger,
		group:       group,
		groupID:     groupID,
		commitOnAck: commitOnAck,
	}

	go c.drainErrors()

	return c, nil
}

// Consume subscribes to the topics and invokes the handler for each record.
// The call blocks until the context is cancelled or an unrecoverable error
// occurs; group rebalances are retried with a short backoff.
func (c *Consumer) Consume(ctx context.Context, topics []string, handler Handler) error {
	if len(topics) == 0 {
		return errors.New("queue consumer: at least one topic is required")
	}
	if handler == nil {
		return errors.New("queue consumer: handler is required")
	}

	c.mu.Lock()
	c.handler = handler
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := c.group.Consume(ctx, topics, &groupHandler{consumer: c}); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			c.logger.Error().Err(err).Msg("queue consumer: consume error")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(defaultConsumeBackoff):
			}
		}
	}
}

// Commit acknowledges the record. With commit-on-ack the offset is flushed
// immediately; otherwise it is marked for the auto-commit interval.
func (c *Consumer) Commit(_ context.Context, record *Record) error {
	if record == nil {
		return errors.New("queue consumer: record is required")
	}
	if record.session == nil || record.message == nil {
		return errors.New("queue consumer: record missing session data")
	}

	record.mu.Lock()
	if record.committed {
		record.mu.Unlock()
		return nil
	}
	record.committed = true
	record.mu.Unlock()

	record.session.MarkMessage(record.message, "")
	if c.commitOnAck {
		record.session.Commit()
	}
	return nil
}

// IsReady reports whether the consumer has joined its group.
func (c *Consumer) IsReady() bool {
	return c.ready.Load()
}

// Close shuts down the consumer group.
func (c *Consumer) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	return c.group.Close()
}

func (c *Consumer) drainErrors() {
	for err := range c.group.Errors() {
		if err != nil {
			c.logger.Error().Err(err).Msg("queue consumer error")
		}
	}
}

type groupHandler struct {
	consumer *Consumer
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	h.consumer.ready.Store(true)
	h.consumer.logger.Info().Str("group_id", h.consumer.groupID).Msg("queue consumer group ready")
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.consumer.ready.Store(false)
	return nil
}

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		record := &Record{
			Topic:     msg.Topic,
			Partition: msg.Partition,
			Offset:    msg.Offset,
			Key:       cloneBytes(msg.Key),
			Value:     cloneBytes(msg.Value),
			Timestamp: msg.Timestamp,
			Headers:   fromHeaders(msg.Headers),
			session:   session,
			message:   msg,
		}

		h.consumer.mu.RLock()
		handler := h.consumer.handler
		h.consumer.mu.RUnlock()

		if handler == nil {
			continue
		}

		if err := handler(session.Context(), record); err != nil {
			h.consumer.logger.Error().
				Err(err).
				Str("topic", msg.Topic).
				Int32("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("queue consumer handler error")
		}
	}
	return nil
}

func cloneBytes(src []byte) []byte {
	if len(src) == 0 {
		return nil
	}
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst
}

func fromHeaders(headers []*sarama.RecordHeader) map[string][]byte {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string][]byte, len(headers))
	for _, h := range headers {
		if h == nil || len(h.Key) == 0 {
			continue
		}
		out[string(h.Key)] = cloneBytes(h.Value)
	}
	return out
}
