package queue

import (
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
	producerClientID        = "replenishment-producer"
	metadataRefreshInterval = 30 * time.Second
)

// Producer publishes messages synchronously with full acknowledgment so
// callers observe every publish failure. Readiness tracks periodic metadata
// refreshes for health reporting.
type Producer struct {
	logger zerolog.Logger

	client       sarama.Client
	syncProducer sarama.SyncProducer

	ready atomic.Bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewProducer constructs a Producer for the supplied broker list.
func NewProducer(brokers []string, logger zerolog.Logger) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("queue producer: at least one broker is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.ClientID = producerClientID
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 6
	cfg.Producer.Retry.Backoff = 250 * time.Millisecond
	cfg.Producer.Return.Successes = true
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Metadata.RefreshFrequency = metadataRefreshInterval

	client, err := sarama.NewClient(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("queue producer: create client: %w", err)
	}

	syncProd, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("queue producer: create sync producer: %w", err)
	}

	p := &Producer{
		logger:       logger,
		client:       client,
		syncProducer: syncProd,
		stopCh:       make(chan struct{}),
	}

	if err := client.RefreshMetadata(); err != nil {
		logger.Error().Err(err).Msg("queue producer initial metadata refresh failed")
	} else {
		p.ready.Store(true)
	}

	p.wg.Add(1)
	go p.watchMetadata()

	return p, nil
}

// PublishSync publishes a message and waits for broker acknowledgment.
func (p *Producer) PublishSync(topic string, key []byte, headers map[string][]byte, payload []byte) error {
	if topic == "" {
		return errors.New("queue producer: topic is required")
	}

	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Value:   sarama.ByteEncoder(payload),
		Headers: toRecordHeaders(headers),
	}
	if len(key) > 0 {
		msg.Key = sarama.ByteEncoder(key)
	}

	if _, _, err := p.syncProducer.SendMessage(msg); err != nil {
		p.ready.Store(false)
		return fmt.Errorf("queue producer: send: %w", err)
	}

	p.ready.Store(true)
	return nil
}

// IsReady indicates whether the producer recently reached the cluster.
func (p *Producer) IsReady() bool {
	return p.ready.Load()
}

// Close releases the underlying producer and stops background goroutines.
func (p *Producer) Close() error {
	close(p.stopCh)
	p.wg.Wait()

	var errs []error
	if err := p.syncProducer.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := p.client.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (p *Producer) watchMetadata() {
	defer p.wg.Done()

	ticker := time.NewTicker(metadataRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			if err := p.client.RefreshMetadata(); err != nil {
				p.logger.Error().Err(err).Msg("queue producer metadata refresh failed")
				p.ready.Store(false)
			} else {
				p.ready.Store(true)
			}
		}
	}
}

func toRecordHeaders(headers map[string][]byte) []sarama.RecordHeader {
	if len(headers) == 0 {
		return nil
	}
	out := make([]sarama.RecordHeader, 0, len(headers))
	for k, v := range headers {
		out = append(out, sarama.RecordHeader{Key: []byte(k), Value: cloneBytes(v)})
	}
	return out
}
